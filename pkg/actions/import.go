package actions

import (
	"context"
	"fmt"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// SourceFile is one file of an import bundle. Path is relative to the
// destination and is normalized before use.
type SourceFile struct {
	Path    string
	Content string
}

// ImportRequest describes a bulk import into the filesystem.
type ImportRequest struct {
	Files []SourceFile

	// DestinationDir is the absolute folder to import into. If it already
	// exists a free "-N" suffixed sibling is used instead.
	DestinationDir string

	// Overwrite replaces files that already exist at their target path.
	// Otherwise they are skipped.
	Overwrite bool

	// OpenAfterImport opens the first imported file.
	OpenAfterImport bool
}

// ImportResult summarizes an import.
type ImportResult struct {
	DestinationDir    string
	CreatedCount      int
	SkippedCount      int
	FirstImportedPath string
}

// ImportSources writes req.Files under a fresh destination folder,
// creating intermediate folders as needed. Files whose path normalizes to
// nothing are skipped.
func (a *Actions) ImportSources(ctx context.Context, req ImportRequest) (ImportResult, error) {
	if len(req.Files) == 0 {
		return ImportResult{}, ErrNoFiles
	}

	dest, err := a.UniqueDirPath(req.DestinationDir)
	if err != nil {
		return ImportResult{}, err
	}
	if err := a.EnsureDir(dest); err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{DestinationDir: dest}
	for _, f := range req.Files {
		rel := vfs.NormalizeRelativePath(f.Path)
		if rel == "" {
			result.SkippedCount++
			continue
		}

		full := vfs.JoinPath(dest, rel)
		parent, _, _ := vfs.SplitPath(full)
		if err := a.EnsureDir(parent); err != nil {
			return result, err
		}

		created, err := a.importFile(ctx, full, f.Content, req.Overwrite)
		if err != nil {
			return result, fmt.Errorf("import %s: %w", full, err)
		}
		if !created {
			result.SkippedCount++
			continue
		}
		if result.FirstImportedPath == "" {
			result.FirstImportedPath = full
		}
		result.CreatedCount++
	}

	if req.OpenAfterImport && result.FirstImportedPath != "" {
		if err := a.OpenFile(ctx, result.FirstImportedPath); err != nil {
			logger.Warn("Imported %s but could not open it: %v", result.FirstImportedPath, err)
		}
	}

	logger.Info("Imported %d files into %s (%d skipped)", result.CreatedCount, dest, result.SkippedCount)
	return result, nil
}

// importFile writes one imported file. It reports false when the file
// exists and overwrite is off.
func (a *Actions) importFile(ctx context.Context, path, text string, overwrite bool) (bool, error) {
	res := a.FS.Resolve(path)
	if !res.Found() {
		ok, err := a.CreateFileWithContent(ctx, path, text)
		if err == nil && !ok {
			err = &vfs.Error{Code: vfs.ErrAlreadyExists, Op: "import", Path: path}
		}
		return ok, err
	}
	if !overwrite {
		return false, nil
	}
	if res.Node.IsDir() {
		return false, &vfs.Error{Code: vfs.ErrIsDirectory, Op: "import", Path: path}
	}

	// The import replaces the file, so edits made on top of the old content
	// are dropped.
	a.Drafts.DiscardDraft(res.Meta.Ino)
	if err := a.commit(ctx, res.Meta.Ino, text, false); err != nil {
		return false, err
	}
	return true, nil
}
