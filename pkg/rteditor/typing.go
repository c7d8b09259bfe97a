package rteditor

import (
	"go.uber.org/zap"
)

// HandleInput is called after the host changed the tree directly (typing, spellcheck,
// drag and drop). data is the inserted text when known.
// The tree is normalized in place and a history snapshot is taken right away for
// boundary characters, otherwise once typing has been idle for the debounce period.
func (e *Editor) HandleInput(data string) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}

	e.settleTree()

	if e.config.IsBoundary(data) {
		e.cancelPendingTyping()
		e.snapshot()
	} else {
		e.scheduleTyping()
	}
	n := e.changeNotification()
	e.mu.Unlock()

	n.send()
}

func (e *Editor) scheduleTyping() {
	e.cancelPendingTyping()
	gen := e.typingGen
	e.pending = e.scheduler.AfterFunc(e.config.TypingDebounce, func() {
		e.typingElapsed(gen)
	})
}

// typingElapsed runs on the scheduler's goroutine
func (e *Editor) typingElapsed(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || gen != e.typingGen {
		return
	}
	e.pending = nil
	if e.snapshot() {
		e.logger.Debug("typing snapshot", zap.Int("history_len", e.history.Len()))
	}
}

// cancelPendingTyping drops the scheduled snapshot. A callback already running sees the
// generation change and does nothing.
func (e *Editor) cancelPendingTyping() {
	e.typingGen++
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

// flushPendingTyping takes the scheduled snapshot now
func (e *Editor) flushPendingTyping() {
	if e.pending == nil {
		return
	}
	e.cancelPendingTyping()
	e.snapshot()
}
