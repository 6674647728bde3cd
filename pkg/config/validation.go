package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator returns a validator that also knows the snapshotname tag.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("snapshotname", func(fl validator.FieldLevel) bool {
		return snapshot.ValidateName(fl.Field().String()) == nil
	})
	return v
}

// Validate checks cfg against its struct tags, then against the rules that
// span sections or depend on the selected backend.
//
// Log levels are accepted in either case here; ApplyDefaults upper-cases
// them.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// backendRequirement names a key that must be set in a backend section when
// that backend is selected.
type backendRequirement struct {
	section  string
	selected func(cfg *Config) bool
	values   func(cfg *Config) map[string]any
	key      string
}

var backendRequirements = []backendRequirement{
	{
		section:  "content.s3",
		selected: func(cfg *Config) bool { return cfg.Content.Type == "s3" },
		values:   func(cfg *Config) map[string]any { return cfg.Content.S3 },
		key:      "bucket",
	},
	{
		section:  "content.postgres",
		selected: func(cfg *Config) bool { return cfg.Content.Type == "postgres" },
		values:   func(cfg *Config) map[string]any { return cfg.Content.Postgres },
		key:      "dsn",
	},
	{
		section:  "snapshot.postgres",
		selected: func(cfg *Config) bool { return cfg.Snapshot.Type == "postgres" },
		values:   func(cfg *Config) map[string]any { return cfg.Snapshot.Postgres },
		key:      "dsn",
	},
}

// validateCustomRules checks what struct tags cannot express.
func validateCustomRules(cfg *Config) error {
	for _, req := range backendRequirements {
		if !req.selected(cfg) {
			continue
		}
		if v, _ := req.values(cfg)[req.key].(string); v == "" {
			backend := req.section[strings.LastIndex(req.section, ".")+1:]
			return fmt.Errorf("%s.%s: required when %s.type is %s",
				req.section, req.key, strings.Split(req.section, ".")[0], backend)
		}
	}

	// Autosave needs a store that outlives the process.
	if cfg.Autosave.Enabled && cfg.Snapshot.Type == "memory" {
		return fmt.Errorf("autosave: enabled with a memory snapshot store")
	}

	return nil
}

// formatValidationError turns validator errors into one line per field.
func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		if e.Tag() == "snapshotname" {
			msgs = append(msgs, fmt.Sprintf("snapshot.name: %v: %q", snapshot.ErrInvalidName, e.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
