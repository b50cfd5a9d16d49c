package runtime

import (
	"context"
	"time"
)

// scheduleAdvance arms the debounced auto-advance timer. A fresh answer
// before the delay elapses cancels the pending advance and starts over; the
// sequence number makes a superseded timer a no-op even if it already fired.
// Callers hold the lock.
func (f *Flow) scheduleAdvance() {
	f.advanceSeq++
	seq := f.advanceSeq

	if f.advanceTimer != nil {
		f.advanceTimer.Stop()
	}
	f.advanceTimer = time.AfterFunc(f.advanceDelay, func() {
		f.fireAdvance(seq)
	})
}

// fireAdvance runs on the timer goroutine. State is read at fire time, not
// capture time: a manual Next, a newer answer, completion, or teardown in the
// meantime all invalidate the pending advance. The seq comparison happens
// inside next's critical section, under the same lock that moves the cursor.
func (f *Flow) fireAdvance(seq uint64) {
	f.logger.Debug("auto-advance firing")
	f.next(context.Background(), &seq)
}

// cancelAdvance invalidates any pending auto-advance. Callers hold the lock.
func (f *Flow) cancelAdvance() {
	f.advanceSeq++
	if f.advanceTimer != nil {
		f.advanceTimer.Stop()
		f.advanceTimer = nil
	}
}

// autoSaveLoop periodically emits a by-value answer snapshot while the flow
// is active. The loop exits when the flow completes or is closed.
func (f *Flow) autoSaveLoop() {
	defer close(f.saveDone)

	ticker := time.NewTicker(f.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.saveStop:
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.closed || f.completed {
				f.mu.Unlock()
				return
			}
			answers := f.answers.Clone()
			snap := f.snapshotLocked()
			hooks := f.hooks
			sink := f.sink
			f.mu.Unlock()

			for _, h := range hooks {
				if h.OnAutoSave != nil {
					f.emit("auto_save", func() { h.OnAutoSave(context.Background(), answers) })
				}
			}
			if sink != nil {
				f.emit("snapshot_sink", func() { sink(context.Background(), snap) })
			}
		}
	}
}

// stopAutoSaveLocked signals the auto-save loop to exit. Callers hold the
// lock; the channel close is guarded so completion followed by Close is safe.
func (f *Flow) stopAutoSaveLocked() {
	if f.saveStop == nil {
		return
	}
	select {
	case <-f.saveStop:
		// already stopped
	default:
		close(f.saveStop)
	}
}

// Close tears down the flow, cancelling both timers. It is idempotent and
// must be called when the session is discarded so no timer outlives it. A
// closed flow rejects all further mutation.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.cancelAdvance()
	f.stopAutoSaveLocked()
	done := f.saveDone
	f.mu.Unlock()

	if done != nil {
		<-done
	}
}
