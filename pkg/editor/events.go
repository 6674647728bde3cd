package editor

import "github.com/auditforge/workspacefs/pkg/vfs"

// ChangeKind identifies what changed in the overlay.
type ChangeKind int

const (
	ChangeDraft ChangeKind = iota
	ChangeUnsaved
	ChangeSaved
	ChangeDiscarded
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeDraft:
		return "draft"
	case ChangeUnsaved:
		return "unsaved"
	case ChangeSaved:
		return "saved"
	case ChangeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers after the overlay lock is released.
// Ino is 0 for changes that affect every file.
type Change struct {
	Kind ChangeKind
	Ino  vfs.Ino
}

// Subscribe registers fn for every later change and returns a function
// that unregisters it.
func (o *Overlay) Subscribe(fn func(Change)) (unsubscribe func()) {
	o.subMu.Lock()
	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = fn
	o.subMu.Unlock()

	return func() {
		o.subMu.Lock()
		delete(o.subscribers, id)
		o.subMu.Unlock()
	}
}

func (o *Overlay) publish(c Change) {
	o.subMu.RLock()
	fns := make([]func(Change), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		fns = append(fns, fn)
	}
	o.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
