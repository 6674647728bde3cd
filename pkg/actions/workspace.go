package actions

import (
	"context"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// WelcomeFileName is the file created in a fresh default workspace.
const WelcomeFileName = "welcome.txt"

// WelcomeFileContent is the initial content of the welcome file.
const WelcomeFileContent = `
 ███  █   █ ████  █████ █████ █████  ███  ████   ████ █████
█   █ █   █ █   █   █     █   █     █   █ █   █ █     █
█████ █   █ █   █   █     █   ████  █   █ ████  █ ███ ████
█   █ █   █ █   █   █     █   █     █   █ █  █  █   █ █
█   █  ███  ████  █████   █   █      ███  █   █  ███  █████

AI-assisted security analysis for smart contracts and source code

GET STARTED
1) Open the File Explorer (left sidebar)
2) Create a file and paste your code
3) Run analysis to generate findings and suggestions

KEYBOARD SHORTCUTS
Action                         Mac             Windows/Linux
Command palette / Open file    Cmd + P         Ctrl + P
Save file                      Cmd + S         Ctrl + S
Run analysis                   Cmd + Enter     Ctrl + Enter
`

// InitializeDefaultWorkspace runs first-start setup once hydration has
// finished: if the default workspace exists it gets a welcome file (unless
// one is there already), becomes the selected workspace and the welcome
// file is opened. The filesystem is marked initialized afterwards even if a
// step failed, so setup never clobbers user data on a later start.
// Calls after initialization do nothing.
func (a *Actions) InitializeDefaultWorkspace(ctx context.Context) error {
	select {
	case <-a.FS.Hydrated():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.initMu.Lock()
	defer a.initMu.Unlock()

	if a.FS.WorkspaceInitialized() {
		return nil
	}
	defer a.FS.SetWorkspaceInitialized(true)

	res := a.FS.Resolve(filesystem.DefaultCwd)
	if !res.Found() || !res.Node.IsDir() {
		logger.Info("Default workspace missing, skipping welcome setup")
		return nil
	}

	welcome := vfs.BuildPath(filesystem.DefaultCwd, WelcomeFileName)
	if !a.FS.Resolve(welcome).Found() {
		if _, err := a.CreateFileWithContent(ctx, welcome, WelcomeFileContent); err != nil {
			return err
		}
	}

	if err := a.FS.SelectWorkspace(filesystem.DefaultWorkspace); err != nil {
		return err
	}
	if err := a.OpenFile(ctx, welcome); err != nil {
		return err
	}

	logger.Info("Initialized default workspace")
	return nil
}
