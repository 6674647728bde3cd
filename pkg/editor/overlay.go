// Package editor tracks in-progress edits on top of committed file content.
//
// Drafts and Baselines
// ====================
//
// A draft is the latest edited text of a file, keyed by inode so that it
// survives renames. A baseline is the committed text the draft is compared
// against. A file is unsaved when its draft differs from its baseline, or
// when a caller says so explicitly with MarkUnsaved.
//
// Nothing in this package touches the content store: saving is done by the
// caller, which then reports it with MarkSaved, or with MarkWritten when the
// committed content was replaced from outside the editor.
//
// Discarding a draft bumps the epoch of its inode. Edits captured before the
// discard carry the old epoch and are dropped by UpsertDraftAt.
package editor

import (
	"sort"
	"sync"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Draft is the in-memory edited content of one file.
type Draft struct {
	Path        string
	Ino         vfs.Ino
	Content     string
	UpdatedAtMs int64
	// Size is the UTF-8 byte length of Content.
	Size int64
}

// Overlay holds drafts, the unsaved set and committed baselines.
// All methods are safe for concurrent use.
type Overlay struct {
	mu         sync.RWMutex
	drafts     map[vfs.Ino]*Draft
	unsaved    map[vfs.Ino]struct{}
	baselines  map[vfs.Ino]string
	epochs     map[vfs.Ino]uint64
	generation uint64 // bumped by DiscardAll
	now        func() time.Time

	subMu       sync.RWMutex
	subscribers map[uint64]func(Change)
	nextSubID   uint64
}

// NewOverlay creates an empty overlay. now defaults to time.Now.
func NewOverlay(now func() time.Time) *Overlay {
	if now == nil {
		now = time.Now
	}
	return &Overlay{
		drafts:      make(map[vfs.Ino]*Draft),
		unsaved:     make(map[vfs.Ino]struct{}),
		baselines:   make(map[vfs.Ino]string),
		epochs:      make(map[vfs.Ino]uint64),
		now:         now,
		subscribers: make(map[uint64]func(Change)),
	}
}

func (o *Overlay) newDraft(ino vfs.Ino, path, content string) *Draft {
	return &Draft{
		Path:        path,
		Ino:         ino,
		Content:     content,
		UpdatedAtMs: o.now().UnixMilli(),
		Size:        int64(len(content)),
	}
}

// SeedDraft records committed as the baseline of ino and creates a draft
// from it if none exists. An existing draft is never replaced, so unsaved
// edits survive reopening a tab, but its unsaved flag is recomputed against
// committed. It reports whether a draft was created.
func (o *Overlay) SeedDraft(ino vfs.Ino, path, committed string) bool {
	o.mu.Lock()
	o.baselines[ino] = committed
	d, exists := o.drafts[ino]
	flagChanged := false
	if !exists {
		o.drafts[ino] = o.newDraft(ino, path, committed)
	} else {
		flagChanged = o.syncUnsavedLocked(ino, d.Content != committed)
	}
	o.mu.Unlock()

	if !exists {
		logger.Debug("Seeded draft for ino %d (%s)", ino, path)
		o.publish(Change{Kind: ChangeDraft, Ino: ino})
	}
	if flagChanged {
		o.publish(Change{Kind: ChangeUnsaved, Ino: ino})
	}
	return !exists
}

// syncUnsavedLocked sets or clears the unsaved flag of ino and reports
// whether it changed. o.mu must be held.
func (o *Overlay) syncUnsavedLocked(ino vfs.Ino, dirty bool) bool {
	_, was := o.unsaved[ino]
	if dirty {
		o.unsaved[ino] = struct{}{}
	} else {
		delete(o.unsaved, ino)
	}
	return was != dirty
}

// Epoch returns the discard epoch of ino. It changes whenever the draft of
// ino is discarded.
func (o *Overlay) Epoch(ino vfs.Ino) uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.epochLocked(ino)
}

func (o *Overlay) epochLocked(ino vfs.Ino) uint64 {
	return o.generation + o.epochs[ino]
}

// UpsertDraftContent creates or updates the draft of ino. path replaces the
// stored path when non-empty. If a baseline is known the unsaved flag is
// brought in line with it.
func (o *Overlay) UpsertDraftContent(ino vfs.Ino, content, path string) {
	o.mu.Lock()
	o.upsertLocked(ino, content, path)
	o.mu.Unlock()

	o.publish(Change{Kind: ChangeDraft, Ino: ino})
}

// UpsertDraftAt is UpsertDraftContent for an edit captured at epoch. The
// edit is dropped, and false returned, if the draft was discarded since.
func (o *Overlay) UpsertDraftAt(ino vfs.Ino, content, path string, epoch uint64) bool {
	o.mu.Lock()
	if o.epochLocked(ino) != epoch {
		o.mu.Unlock()
		logger.Debug("Dropped edit of ino %d made before its draft was discarded", ino)
		return false
	}
	o.upsertLocked(ino, content, path)
	o.mu.Unlock()

	o.publish(Change{Kind: ChangeDraft, Ino: ino})
	return true
}

func (o *Overlay) upsertLocked(ino vfs.Ino, content, path string) {
	d, ok := o.drafts[ino]
	if !ok {
		d = o.newDraft(ino, path, content)
		o.drafts[ino] = d
	} else {
		d.Content = content
		d.Size = int64(len(content))
		d.UpdatedAtMs = o.now().UnixMilli()
		if path != "" {
			d.Path = path
		}
	}
	if base, known := o.baselines[ino]; known {
		o.syncUnsavedLocked(ino, content != base)
	}
}

// MarkUnsaved flags ino as having unsaved changes.
func (o *Overlay) MarkUnsaved(ino vfs.Ino) {
	o.mu.Lock()
	_, was := o.unsaved[ino]
	o.unsaved[ino] = struct{}{}
	o.mu.Unlock()

	if !was {
		o.publish(Change{Kind: ChangeUnsaved, Ino: ino})
	}
}

// ClearUnsaved drops the unsaved flag of ino. The draft is kept.
func (o *Overlay) ClearUnsaved(ino vfs.Ino) {
	o.mu.Lock()
	_, was := o.unsaved[ino]
	delete(o.unsaved, ino)
	o.mu.Unlock()

	if was {
		o.publish(Change{Kind: ChangeUnsaved, Ino: ino})
	}
}

// ClearAllUnsaved drops every unsaved flag.
func (o *Overlay) ClearAllUnsaved() {
	o.mu.Lock()
	o.unsaved = make(map[vfs.Ino]struct{})
	o.mu.Unlock()

	o.publish(Change{Kind: ChangeUnsaved})
}

// DiscardDraft forgets everything known about ino: its draft, its unsaved
// flag and its baseline.
func (o *Overlay) DiscardDraft(ino vfs.Ino) {
	o.mu.Lock()
	delete(o.drafts, ino)
	delete(o.unsaved, ino)
	delete(o.baselines, ino)
	o.epochs[ino]++
	o.mu.Unlock()

	logger.Debug("Discarded draft for ino %d", ino)
	o.publish(Change{Kind: ChangeDiscarded, Ino: ino})
}

// DiscardAll empties the overlay.
func (o *Overlay) DiscardAll() {
	o.mu.Lock()
	o.drafts = make(map[vfs.Ino]*Draft)
	o.unsaved = make(map[vfs.Ino]struct{})
	o.baselines = make(map[vfs.Ino]string)
	o.generation++
	o.mu.Unlock()

	o.publish(Change{Kind: ChangeDiscarded})
}

// MarkSaved records that content was committed for ino from its draft.
//
// The baseline always becomes content and the unsaved flag follows whether
// the draft still equals it: an edit that landed while the save was in
// flight keeps the file unsaved.
func (o *Overlay) MarkSaved(ino vfs.Ino, content string) {
	o.mu.Lock()
	o.baselines[ino] = content
	d, ok := o.drafts[ino]
	clean := !ok || d.Content == content
	o.syncUnsavedLocked(ino, !clean)
	o.mu.Unlock()

	if !clean {
		logger.Debug("Ino %d changed during save, keeping it unsaved", ino)
	}
	o.publish(Change{Kind: ChangeSaved, Ino: ino})
}

// MarkWritten records that content was committed for ino by a direct write
// rather than by saving its draft. A draft without unsaved edits is moved to
// content. A draft with unsaved edits is kept and stays unsaved unless it
// already equals content.
func (o *Overlay) MarkWritten(ino vfs.Ino, content string) {
	o.mu.Lock()
	o.baselines[ino] = content
	d, ok := o.drafts[ino]
	if ok {
		if _, dirty := o.unsaved[ino]; !dirty && d.Content != content {
			d.Content = content
			d.Size = int64(len(content))
			d.UpdatedAtMs = o.now().UnixMilli()
		}
		o.syncUnsavedLocked(ino, d.Content != content)
	} else {
		delete(o.unsaved, ino)
	}
	o.mu.Unlock()

	o.publish(Change{Kind: ChangeSaved, Ino: ino})
}

// RenamePath rewrites the path of every draft at or below oldPath.
func (o *Overlay) RenamePath(oldPath, newPath string) {
	o.mu.Lock()
	for _, d := range o.drafts {
		if p, ok := vfs.ReplacePathPrefix(d.Path, oldPath, newPath); ok {
			d.Path = p
		}
	}
	o.mu.Unlock()

	o.publish(Change{Kind: ChangeDraft})
}

// Draft returns a copy of the draft of ino.
func (o *Overlay) Draft(ino vfs.Ino) (Draft, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	d, ok := o.drafts[ino]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Drafts returns copies of every draft, ordered by inode.
func (o *Overlay) Drafts() []Draft {
	o.mu.RLock()
	out := make([]Draft, 0, len(o.drafts))
	for _, d := range o.drafts {
		out = append(out, *d)
	}
	o.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Ino < out[j].Ino })
	return out
}

// UnsavedInos returns the unsaved inodes in ascending order.
func (o *Overlay) UnsavedInos() []vfs.Ino {
	o.mu.RLock()
	out := make([]vfs.Ino, 0, len(o.unsaved))
	for ino := range o.unsaved {
		out = append(out, ino)
	}
	o.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsUnsaved reports whether ino has unsaved changes.
func (o *Overlay) IsUnsaved(ino vfs.Ino) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.unsaved[ino]
	return ok
}

// HasUnsavedChanges reports whether any file is unsaved.
func (o *Overlay) HasUnsavedChanges() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.unsaved) > 0
}

// Baseline returns the last committed content known for ino.
func (o *Overlay) Baseline(ino vfs.Ino) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.baselines[ino]
	return b, ok
}
