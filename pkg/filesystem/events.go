package filesystem

import (
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// EventKind classifies a state change.
type EventKind int

const (
	EventCreated EventKind = iota
	EventRenamed
	EventDeleted
	EventStatChanged
	EventTabsChanged
	EventWorkspaceChanged
	EventHydrated
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventRenamed:
		return "renamed"
	case EventDeleted:
		return "deleted"
	case EventStatChanged:
		return "stat_changed"
	case EventTabsChanged:
		return "tabs_changed"
	case EventWorkspaceChanged:
		return "workspace_changed"
	case EventHydrated:
		return "hydrated"
	default:
		return "unknown"
	}
}

// Event describes one committed change.
type Event struct {
	Kind EventKind

	// Path is the affected path after the change, "" for global changes.
	Path string

	// OldPath is set for renames.
	OldPath string

	// Ino is the affected inode when known.
	Ino vfs.Ino
}

// Subscribe registers fn to receive every subsequent change. Events are
// delivered synchronously on the mutating goroutine after the state lock
// has been released, so fn may call back into the FileSystem. The returned
// function unsubscribes.
func (fs *FileSystem) Subscribe(fn func(Event)) (unsubscribe func()) {
	fs.subMu.Lock()
	id := fs.nextSubID
	fs.nextSubID++
	fs.subscribers[id] = fn
	fs.subMu.Unlock()

	return func() {
		fs.subMu.Lock()
		delete(fs.subscribers, id)
		fs.subMu.Unlock()
	}
}

func (fs *FileSystem) publish(ev Event) {
	fs.subMu.RLock()
	fns := make([]func(Event), 0, len(fs.subscribers))
	for _, fn := range fs.subscribers {
		fns = append(fns, fn)
	}
	fs.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
