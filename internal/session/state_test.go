package session

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "CONNECTING"},
		{StateAwaitingApproval, "AWAITING_APPROVAL"},
		{StateAwaitingWorldInfo, "AWAITING_WORLD_INFO"},
		{StateAwaitingSpawn, "AWAITING_SPAWN"},
		{StatePlaying, "PLAYING"},
		{StateFailed, "FAILED"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
