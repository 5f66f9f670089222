package world

import "github.com/grottonet/grotto/internal/metrics"

// TeleportTracker counts pending teleport request/acknowledge cycles per
// target slot. Counts never go negative; drained entries are deleted.
// It lives for the session duration and is used from the session goroutine
// only.
type TeleportTracker struct {
	pending map[int16]int
}

// NewTeleportTracker creates an empty tracker.
func NewTeleportTracker() *TeleportTracker {
	return &TeleportTracker{pending: make(map[int16]int)}
}

// Sent records a pending teleport request for target. Returns true only on
// the 0→1 transition, which callers use to dedupe logging.
func (t *TeleportTracker) Sent(target int16) bool {
	t.pending[target]++
	return t.pending[target] == 1
}

// Ack records an acknowledgement for target. Returns true only when the
// pending count drains to zero; acks with nothing pending are no-ops.
func (t *TeleportTracker) Ack(target int16) bool {
	n, ok := t.pending[target]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.pending, target)
		metrics.TeleportAcks.Inc()
		return true
	}
	t.pending[target] = n - 1
	return false
}

// Pending returns the outstanding request count for target.
func (t *TeleportTracker) Pending(target int16) int {
	return t.pending[target]
}
