package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cli runs commands against one on-disk workspace, each in a fresh process
// state, so every step also exercises persist and hydrate.
type cli struct {
	t          *testing.T
	configPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	body := `
logging:
  level: ERROR
  output: stderr
content:
  type: filesystem
  filesystem:
    path: ` + filepath.Join(dir, "content") + `
snapshot:
  type: file
  file:
    dir: ` + filepath.Join(dir, "snapshots") + `
`
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0644))
	return &cli{t: t, configPath: configPath}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"-config", c.configPath}, args...)
	err := run(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, "workspacefs %s", strings.Join(args, " "))
	return out
}

func TestCLI_FileLifecycle(t *testing.T) {
	c := newCLI(t)

	c.mustRun("write", "contracts/a.sol", "contract A {}")
	assert.Equal(t, "contract A {}", c.mustRun("cat", "contracts/a.sol"))
	assert.Equal(t, "contract A {}", c.mustRun("cat", "/.workspaces/default_workspace/contracts/a.sol"))

	ls := c.mustRun("ls")
	assert.Contains(t, ls, "contracts/")
	assert.Contains(t, ls, "welcome.txt")
	assert.Contains(t, c.mustRun("ls", "contracts"), "      13  a.sol")

	c.mustRun("mv", "contracts/a.sol", "b.sol")
	assert.Equal(t, "contract A {}", c.mustRun("cat", "contracts/b.sol"))
	_, err := c.run("", "cat", "contracts/a.sol")
	require.Error(t, err)

	c.mustRun("rm", "contracts")
	_, err = c.run("", "cat", "contracts/b.sol")
	require.Error(t, err)
}

func TestCLI_WriteFromStdin(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("line one\nline two\n", "write", "notes.md", "-")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", c.mustRun("cat", "notes.md"))
}

func TestCLI_Tree(t *testing.T) {
	c := newCLI(t)
	c.mustRun("mkdir", "src/lib")

	out := c.mustRun("tree", "/")
	assert.Contains(t, out, "└── .workspaces/")
	assert.Contains(t, out, "default_workspace/")
	assert.Contains(t, out, "lib/")
	assert.Contains(t, out, "welcome.txt")
}

func TestCLI_Workspaces(t *testing.T) {
	c := newCLI(t)

	c.mustRun("workspace", "create", "demo")
	list := c.mustRun("workspace", "list")
	assert.Contains(t, list, "* default_workspace")
	assert.Contains(t, list, "  demo")

	c.mustRun("workspace", "select", "demo")
	c.mustRun("write", "x.txt", "hi")
	assert.Equal(t, "hi", c.mustRun("cat", "/.workspaces/demo/x.txt"))
	assert.Contains(t, c.mustRun("workspace", "list"), "* demo")

	_, err := c.run("", "workspace", "create", "demo")
	require.Error(t, err)
}

func TestCLI_Import(t *testing.T) {
	c := newCLI(t)

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "main.sol"), []byte("contract Main {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "README.md"), []byte("# audit"), 0644))

	out := c.mustRun("import", "proj", src)
	assert.Contains(t, out, "Imported 2 files")
	assert.Equal(t, "contract Main {}", c.mustRun("cat", "proj/src/main.sol"))

	// A second import lands next to the first.
	out = c.mustRun("import", "proj", src)
	assert.Contains(t, out, "proj-2")
}

func TestCLI_GC(t *testing.T) {
	c := newCLI(t)
	c.mustRun("write", "a.sol", "contract A {}")

	// Nothing is orphaned while every written file is still in the tree.
	out := c.mustRun("gc", "-dry-run")
	assert.Contains(t, out, "orphaned=0")

	out = c.mustRun("gc")
	assert.Contains(t, out, "deleted=0")
}

func TestCLI_UsageErrors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.run("", "frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.run("", "cat")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.run("", "workspace", "rename")
	assert.ErrorIs(t, err, errUsage)
}

func TestCLI_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	var out, errOut bytes.Buffer

	err := run(context.Background(), []string{"init", "-path", path}, nil, &out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, out.String(), path)

	err = run(context.Background(), []string{"init", "-path", path}, nil, &out, &errOut)
	require.Error(t, err)

	err = run(context.Background(), []string{"init", "-force", "-path", path}, nil, &out, &errOut)
	require.NoError(t, err)
}

func TestCLI_Color(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("-color", "always", "tree")
	assert.Contains(t, out, "\x1b[")

	out = c.mustRun("-color", "never", "tree")
	assert.NotContains(t, out, "\x1b[")

	_, err := c.run("", "-color", "rainbow", "ls")
	assert.ErrorIs(t, err, errUsage)
}
