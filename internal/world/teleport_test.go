package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeleportTrackerSent(t *testing.T) {
	tr := NewTeleportTracker()

	assert.True(t, tr.Sent(4), "first request is the 0 to 1 transition")
	assert.False(t, tr.Sent(4))
	assert.False(t, tr.Sent(4))
	assert.Equal(t, 3, tr.Pending(4))

	assert.True(t, tr.Sent(9), "targets are tracked independently")
}

func TestTeleportTrackerAckDrains(t *testing.T) {
	tr := NewTeleportTracker()

	for i := 0; i < 3; i++ {
		tr.Sent(4)
	}
	assert.False(t, tr.Ack(4))
	assert.False(t, tr.Ack(4))
	assert.True(t, tr.Ack(4), "only the final ack drains the target")
	assert.Zero(t, tr.Pending(4))
}

func TestTeleportTrackerAckWithoutRequest(t *testing.T) {
	tr := NewTeleportTracker()

	assert.False(t, tr.Ack(4))
	assert.Zero(t, tr.Pending(4), "counts never go negative")

	tr.Sent(4)
	assert.True(t, tr.Ack(4), "a later cycle is unaffected by the stray ack")
}
