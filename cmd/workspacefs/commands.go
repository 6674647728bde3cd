package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/auditforge/workspacefs/pkg/actions"
	"github.com/auditforge/workspacefs/pkg/gc"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// command runs against a loaded workspace. The workspace is saved after it
// returns, successful or not.
type command func(ctx context.Context, ws *workspace, args []string, stdin io.Reader, stdout io.Writer) error

var commands = map[string]command{
	"tree":      cmdTree,
	"ls":        cmdList,
	"cat":       cmdCat,
	"write":     cmdWrite,
	"mkdir":     cmdMkdir,
	"rm":        cmdRemove,
	"mv":        cmdRename,
	"workspace": cmdWorkspace,
	"import":    cmdImport,
	"gc":        cmdGC,
}

func wantArgs(name string, args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("%w: %s takes %d to %d arguments, got %d", errUsage, name, lo, hi, len(args))
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	return flags
}

// pathArg returns the optional first argument resolved, or the current
// directory.
func pathArg(ws *workspace, args []string) string {
	if len(args) == 0 {
		return ws.fs.Cwd()
	}
	return ws.resolve(args[0])
}

func cmdTree(ctx context.Context, ws *workspace, args []string, _ io.Reader, out io.Writer) error {
	if err := wantArgs("tree", args, 0, 1); err != nil {
		return err
	}

	root := pathArg(ws, args)
	res := ws.fs.Tree().Resolve(root)
	if !res.Found() {
		return fmt.Errorf("tree %s: %w", root, vfs.ErrNotExist)
	}

	fmt.Fprintln(out, ws.style.dir.Sprint(root))
	printTree(out, ws.style, res.Node, "")
	return nil
}

func printTree(out io.Writer, style styles, dir *vfs.Node, indent string) {
	entries := vfs.ListChildren(dir)
	for i, e := range entries {
		branch, next := "├── ", "│   "
		if i == len(entries)-1 {
			branch, next = "└── ", "    "
		}
		if e.Node.IsDir() {
			fmt.Fprintf(out, "%s%s%s\n", indent, branch, style.dir.Sprint(e.Name+"/"))
			printTree(out, style, e.Node, indent+next)
			continue
		}
		fmt.Fprintf(out, "%s%s%s\n", indent, branch, e.Name)
	}
}

func cmdList(ctx context.Context, ws *workspace, args []string, _ io.Reader, out io.Writer) error {
	if err := wantArgs("ls", args, 0, 1); err != nil {
		return err
	}

	entries, err := ws.fs.ListChildren(pathArg(ws, args))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Meta.IsDir() {
			fmt.Fprintf(out, "d %8s  %s\n", "-", ws.style.dir.Sprint(e.Name+"/"))
			continue
		}
		fmt.Fprintf(out, "f %8d  %s\n", e.Meta.Size, e.Name)
	}
	return nil
}

func cmdCat(ctx context.Context, ws *workspace, args []string, _ io.Reader, out io.Writer) error {
	if err := wantArgs("cat", args, 1, 1); err != nil {
		return err
	}

	text, err := ws.actions.ReadFile(ctx, ws.resolve(args[0]))
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

func cmdWrite(ctx context.Context, ws *workspace, args []string, in io.Reader, out io.Writer) error {
	if err := wantArgs("write", args, 2, 2); err != nil {
		return err
	}

	text := args[1]
	if text == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	path := ws.resolve(args[0])
	if parent, _, ok := vfs.SplitPath(path); ok {
		if err := ws.actions.EnsureDir(parent); err != nil {
			return err
		}
	}
	if err := ws.actions.WriteFile(ctx, path, text); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d bytes to %s\n", len(text), path)
	return nil
}

func cmdMkdir(ctx context.Context, ws *workspace, args []string, _ io.Reader, _ io.Writer) error {
	if err := wantArgs("mkdir", args, 1, 1); err != nil {
		return err
	}
	return ws.actions.EnsureDir(ws.resolve(args[0]))
}

func cmdRemove(ctx context.Context, ws *workspace, args []string, _ io.Reader, _ io.Writer) error {
	if err := wantArgs("rm", args, 1, 1); err != nil {
		return err
	}
	return ws.actions.DeleteNode(ctx, ws.resolve(args[0]))
}

func cmdRename(ctx context.Context, ws *workspace, args []string, _ io.Reader, _ io.Writer) error {
	if err := wantArgs("mv", args, 2, 2); err != nil {
		return err
	}
	return ws.actions.RenameNode(ws.resolve(args[0]), args[1])
}

func cmdWorkspace(ctx context.Context, ws *workspace, args []string, _ io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: workspace needs list, create or select", errUsage)
	}

	switch args[0] {
	case "list":
		selected := ws.fs.SelectedWorkspace()
		for _, name := range ws.fs.Workspaces() {
			if name == selected {
				fmt.Fprintln(out, ws.style.selected.Sprint("* "+name))
				continue
			}
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil

	case "create":
		if err := wantArgs("workspace create", args[1:], 1, 1); err != nil {
			return err
		}
		if _, err := ws.fs.CreateWorkspace(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created workspace %s\n", args[1])
		return nil

	case "select":
		if err := wantArgs("workspace select", args[1:], 1, 1); err != nil {
			return err
		}
		return ws.fs.SelectWorkspace(args[1])

	default:
		return fmt.Errorf("%w: unknown workspace subcommand %q", errUsage, args[0])
	}
}

func cmdImport(ctx context.Context, ws *workspace, args []string, _ io.Reader, out io.Writer) error {
	flags := newFlagSet("import")
	overwrite := flags.Bool("overwrite", false, "Replace files that already exist")
	open := flags.Bool("open", false, "Open the first imported file")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := wantArgs("import", flags.Args(), 2, 2); err != nil {
		return err
	}

	files, err := readLocalDir(flags.Arg(1))
	if err != nil {
		return err
	}

	res, err := ws.actions.ImportSources(ctx, actions.ImportRequest{
		Files:           files,
		DestinationDir:  ws.resolve(flags.Arg(0)),
		Overwrite:       *overwrite,
		OpenAfterImport: *open,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ws.style.summary.Sprintf("Imported %d files into %s (%d skipped)",
		res.CreatedCount, res.DestinationDir, res.SkippedCount))
	return nil
}

func cmdGC(ctx context.Context, ws *workspace, args []string, _ io.Reader, out io.Writer) error {
	flags := newFlagSet("gc")
	dryRun := flags.Bool("dry-run", ws.cfg.GC.DryRun, "Report orphans without deleting them")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	stats, err := gc.NewCollector(ws.fs, ws.stores.Content, gc.Config{DryRun: *dryRun}).RunNow(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ws.style.summary.Sprint(stats.Summary()))
	return nil
}

// readLocalDir loads every regular file under dir as a SourceFile with a
// slash-separated relative path.
func readLocalDir(dir string) ([]actions.SourceFile, error) {
	var files []actions.SourceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, actions.SourceFile{
			Path:    filepath.ToSlash(rel),
			Content: strings.ToValidUTF8(string(data), "�"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	return files, nil
}
