package editor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_RunsLastTrigger(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var ran []int
	for i := 1; i <= 3; i++ {
		i := i
		d.Trigger(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, ran)
}

func TestDebouncer_Flush(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	require.True(t, d.Pending())

	d.Flush()
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, d.Pending())

	d.Flush()
	assert.EqualValues(t, 1, calls.Load(), "nothing pending")
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, d.Pending())
}

func TestSession_UnsavedFlagIsImmediate(t *testing.T) {
	o := NewOverlay(nil)
	o.SeedDraft(1, "/a.sol", "base")
	s := NewSession(o, time.Hour)
	defer s.Close()

	s.HandleChange(1, "/a.sol", "base!")
	assert.True(t, o.IsUnsaved(1))
	d, _ := o.Draft(1)
	assert.Equal(t, "base", d.Content, "draft waits for the debounce")

	s.HandleChange(1, "/a.sol", "base")
	assert.False(t, o.IsUnsaved(1))
}

func TestSession_ConvergesToLastEdit(t *testing.T) {
	o := NewOverlay(nil)
	o.SeedDraft(1, "/a.sol", "")
	o.SeedDraft(2, "/b.sol", "")
	s := NewSession(o, 0)
	defer s.Close()

	for _, v := range []string{"c", "co", "con", "cont"} {
		s.HandleChange(1, "/a.sol", v)
	}
	s.HandleChange(2, "/b.sol", "other")
	s.Flush()

	d, _ := o.Draft(1)
	assert.Equal(t, "cont", d.Content)
	d, _ = o.Draft(2)
	assert.Equal(t, "other", d.Content, "edits to different files are not lost")
	assert.Equal(t, []vfs.Ino{1, 2}, o.UnsavedInos())
}

func TestSession_DebouncedApply(t *testing.T) {
	o := NewOverlay(nil)
	s := NewSession(o, 10*time.Millisecond)
	defer s.Close()

	s.HandleChange(9, "/n.txt", "hello")
	assert.Eventually(t, func() bool {
		d, ok := o.Draft(9)
		return ok && d.Content == "hello"
	}, time.Second, 5*time.Millisecond)
}

func TestSession_DiscardDuringDebounce(t *testing.T) {
	o := NewOverlay(nil)
	o.SeedDraft(1, "/a.sol", "saved")
	s := NewSession(o, 20*time.Millisecond)
	defer s.Close()

	s.HandleChange(1, "/a.sol", "typed")
	require.True(t, o.IsUnsaved(1))
	o.DiscardDraft(1)

	time.Sleep(60 * time.Millisecond)
	s.Flush()
	_, ok := o.Draft(1)
	assert.False(t, ok)
	assert.False(t, o.IsUnsaved(1))

	// Edits made after the discard still land.
	o.SeedDraft(1, "/a.sol", "saved")
	s.HandleChange(1, "/a.sol", "again")
	s.Flush()
	d, _ := o.Draft(1)
	assert.Equal(t, "again", d.Content)
	assert.True(t, o.IsUnsaved(1))
}

func TestSession_Cancel(t *testing.T) {
	o := NewOverlay(nil)
	o.SeedDraft(1, "/a.sol", "saved")
	s := NewSession(o, time.Hour)
	defer s.Close()

	s.HandleChange(1, "/a.sol", "typed")
	s.Cancel(1)
	s.Flush()

	d, _ := o.Draft(1)
	assert.Equal(t, "saved", d.Content)
}
