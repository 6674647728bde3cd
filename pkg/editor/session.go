package editor

import (
	"sync"
	"time"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// DefaultDebounce is the delay before an edit reaches the draft.
const DefaultDebounce = 100 * time.Millisecond

type pendingEdit struct {
	path    string
	content string
	epoch   uint64
}

// Session is the change handler of an editing surface. Keystrokes update
// the unsaved flag at once, while the draft text itself is written through
// a debouncer so that a burst of edits costs one draft update per file.
type Session struct {
	overlay   *Overlay
	debouncer *Debouncer

	mu      sync.Mutex
	pending map[vfs.Ino]pendingEdit
}

// NewSession creates a Session on overlay. delay <= 0 uses DefaultDebounce.
func NewSession(overlay *Overlay, delay time.Duration) *Session {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Session{
		overlay:   overlay,
		debouncer: NewDebouncer(delay),
		pending:   make(map[vfs.Ino]pendingEdit),
	}
}

// HandleChange records that the file ino at path now reads value.
//
// The unsaved flag is updated immediately by comparing value with the
// committed baseline (empty when none is known). The draft is updated after
// the debounce delay with the latest value per file.
func (s *Session) HandleChange(ino vfs.Ino, path, value string) {
	s.mu.Lock()
	s.pending[ino] = pendingEdit{path: path, content: value, epoch: s.overlay.Epoch(ino)}
	s.mu.Unlock()
	s.debouncer.Trigger(s.apply)

	base, _ := s.overlay.Baseline(ino)
	if value == base {
		s.overlay.ClearUnsaved(ino)
		return
	}
	s.overlay.MarkUnsaved(ino)
}

// Cancel drops the pending edit of ino, if any.
func (s *Session) Cancel(ino vfs.Ino) {
	s.mu.Lock()
	delete(s.pending, ino)
	s.mu.Unlock()
}

// Flush writes all pending edits to the overlay before returning.
func (s *Session) Flush() {
	s.debouncer.Flush()
	// Waits for a timer-driven apply that may already be running.
	s.apply()
}

// Close flushes pending edits and stops the debouncer.
func (s *Session) Close() {
	s.Flush()
	s.debouncer.Stop()
}

func (s *Session) apply() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ino, edit := range s.pending {
		s.overlay.UpsertDraftAt(ino, edit.content, edit.path, edit.epoch)
	}
	s.pending = make(map[vfs.Ino]pendingEdit)
}
