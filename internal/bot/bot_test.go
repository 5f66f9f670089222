package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDecide(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		obs    Observation
		want   Action
	}{
		{
			name:   "walks right when preferred",
			policy: Policy{PreferRight: true, JumpIfBlocked: true},
			obs:    Observation{OnGround: true},
			want:   Action{MoveRight: true},
		},
		{
			name:   "walks left otherwise",
			policy: Policy{JumpIfBlocked: true},
			obs:    Observation{OnGround: true},
			want:   Action{MoveLeft: true},
		},
		{
			name:   "jumps at an obstacle",
			policy: Policy{PreferRight: true, JumpIfBlocked: true},
			obs:    Observation{BlockedAhead: true, OnGround: true},
			want:   Action{MoveRight: true, Jump: true},
		},
		{
			name:   "no jump while airborne",
			policy: Policy{PreferRight: true, JumpIfBlocked: true},
			obs:    Observation{BlockedAhead: true, OnGround: false},
			want:   Action{MoveRight: true},
		},
		{
			name:   "no jump when disabled",
			policy: Policy{PreferRight: true},
			obs:    Observation{BlockedAhead: true, OnGround: true},
			want:   Action{MoveRight: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Decide(tt.obs)
			assert.Equal(t, tt.want, got)
		})
	}
}
