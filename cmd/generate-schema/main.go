// Command generate-schema writes the JSON schema of the workspacefs
// configuration file, for editor completion and validation of config.yaml.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/auditforge/workspacefs/pkg/config"
	"github.com/invopop/jsonschema"
)

func main() {
	out := flag.String("o", "config.schema.json", `Output file, "-" for stdout`)
	flag.Parse()

	if err := run(*out, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, stdout io.Writer) error {
	data, err := generate()
	if err != nil {
		return err
	}

	if out == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	fmt.Fprintf(stdout, "JSON schema written to %s\n", out)
	return nil
}

// generate reflects config.Config using the same yaml field names the
// config file uses.
func generate() ([]byte, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/auditforge/workspacefs/config.schema.json"
	schema.Title = "workspacefs configuration"
	schema.Description = "Stores, editor timing, autosave, metrics and garbage collection for a workspacefs workspace"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
