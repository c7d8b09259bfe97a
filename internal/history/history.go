package history

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"rteditor/internal/dom"
)

const (
	DefaultCapacity         = 100
	DefaultSnapshotInterval = 20
	DefaultMemoTTL          = 2 * time.Minute
)

// History is a bounded undo stack of serialized editor states.
// Most entries are stored as deltas against the entry before them; every
// interval-th push is stored in full so reconstruction chains stay short.
// A History is not safe for concurrent use.
type History struct {
	entries  []entry
	index    int
	nextID   uint64
	capacity int
	interval int
	memo     *cache.Cache
}

// Option configures a History
type Option func(*History)

// WithCapacity bounds the number of stored states
func WithCapacity(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.capacity = n
		}
	}
}

// WithSnapshotInterval sets how often a full snapshot is stored instead of a delta
func WithSnapshotInterval(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.interval = n
		}
	}
}

// WithMemoTTL sets how long reconstructed states stay memoized
func WithMemoTTL(d time.Duration) Option {
	return func(h *History) {
		h.memo = cache.New(d, d)
	}
}

// New creates an empty history
func New(opts ...Option) *History {
	h := &History{
		index:    -1,
		capacity: DefaultCapacity,
		interval: DefaultSnapshotInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.memo == nil {
		h.memo = cache.New(DefaultMemoTTL, DefaultMemoTTL)
	}
	return h
}

// Len returns the number of stored states
func (h *History) Len() int {
	return len(h.entries)
}

// Index returns the current position, or -1 when empty
func (h *History) Index() int {
	return h.index
}

// CanUndo reports whether there is an earlier state
func (h *History) CanUndo() bool {
	return h.index > 0
}

// CanRedo reports whether there is a later state
func (h *History) CanRedo() bool {
	return h.index >= 0 && h.index < len(h.entries)-1
}

// Push records content as the newest state.
// It returns false, leaving the stack untouched, when content equals the current state.
// Otherwise states after the current position are discarded first.
func (h *History) Push(content string, selection *dom.SavedSelection) bool {
	if h.index >= 0 && h.reconstruct(h.index) == content {
		return false
	}

	for _, dropped := range h.entries[h.index+1:] {
		h.memo.Delete(memoKey(dropped.id))
	}
	h.entries = h.entries[:h.index+1]

	e := entry{id: h.nextID, selection: selection}
	h.nextID++
	if h.index < 0 || e.id%uint64(h.interval) == 0 {
		e.anchor = true
		e.html = content
	} else {
		e.delta = calculateDelta(h.reconstruct(h.index), content)
	}
	h.entries = append(h.entries, e)
	h.index = len(h.entries) - 1
	h.memo.SetDefault(memoKey(e.id), content)

	if len(h.entries) > h.capacity {
		h.evictOldest()
	}
	return true
}

// evictOldest drops the first entry. The entry after it is materialized as a full
// snapshot while the chain it depends on still exists.
func (h *History) evictOldest() {
	if len(h.entries) > 1 && !h.entries[1].anchor {
		next := &h.entries[1]
		next.html = h.reconstruct(1)
		next.anchor = true
		next.delta = Delta{}
	}
	h.memo.Delete(memoKey(h.entries[0].id))
	h.entries[0] = entry{}
	h.entries = h.entries[1:]
	h.index--
}

// Undo moves one state back and returns it
func (h *History) Undo() (State, bool) {
	if !h.CanUndo() {
		return State{}, false
	}
	h.index--
	return h.state(h.index), true
}

// Redo moves one state forward and returns it
func (h *History) Redo() (State, bool) {
	if !h.CanRedo() {
		return State{}, false
	}
	h.index++
	return h.state(h.index), true
}

// Current returns the state at the current position
func (h *History) Current() (State, bool) {
	if h.index < 0 {
		return State{}, false
	}
	return h.state(h.index), true
}

// Reset discards every state
func (h *History) Reset() {
	h.entries = nil
	h.index = -1
	h.memo.Flush()
}

func (h *History) state(i int) State {
	return State{HTML: h.reconstruct(i), Selection: h.entries[i].selection}
}

// reconstruct rebuilds the serialized state at i by walking back to the nearest anchor
// (or memoized state) and replaying deltas forward.
func (h *History) reconstruct(i int) string {
	var (
		base  string
		chain []Delta
	)
	for j := i; j >= 0; j-- {
		e := h.entries[j]
		if e.anchor {
			base = e.html
			break
		}
		if cached, ok := h.memo.Get(memoKey(e.id)); ok {
			base = cached.(string)
			break
		}
		chain = append(chain, e.delta)
	}

	content := base
	for k := len(chain) - 1; k >= 0; k-- {
		content = applyDelta(content, chain[k])
	}
	if len(chain) > 0 {
		h.memo.SetDefault(memoKey(h.entries[i].id), content)
	}
	return content
}

func memoKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// calculateDelta trims the common prefix and suffix of prev and next
func calculateDelta(prev, next string) Delta {
	start := 0
	for start < len(prev) && start < len(next) && prev[start] == next[start] {
		start++
	}
	endOld, endNew := len(prev), len(next)
	for endOld > start && endNew > start && prev[endOld-1] == next[endNew-1] {
		endOld--
		endNew--
	}
	return Delta{Start: start, EndOld: endOld, Text: next[start:endNew]}
}

func applyDelta(prev string, d Delta) string {
	start, end := d.Start, d.EndOld
	if start > len(prev) {
		start = len(prev)
	}
	if end > len(prev) {
		end = len(prev)
	}
	if end < start {
		end = start
	}
	return prev[:start] + d.Text + prev[end:]
}
