// Package bot drives synthetic player behavior on top of a playing session:
// a tile-aware exploration policy, a minimal movement integrator, and a tick
// loop that polls the protocol engine between decisions. The policy is
// intentionally simple; it exists to exercise the encode path and the world
// snapshots, not to play well.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grottonet/grotto/internal/protocol"
	"github.com/grottonet/grotto/internal/session"
	"github.com/grottonet/grotto/internal/world"
)

// Player hitbox in world (pixel) units.
const (
	playerWidth  = 20
	playerHeight = 42
	tileSize     = 16
)

// Observation is the slice of world state the policy sees each tick.
type Observation struct {
	X, Y         float32
	BlockedAhead bool
	OnGround     bool
}

// Action is the policy output for one tick.
type Action struct {
	MoveLeft  bool
	MoveRight bool
	Jump      bool
}

// Policy is the exploration decision rule: walk the preferred direction,
// jump when a solid tile blocks the body.
type Policy struct {
	PreferRight   bool
	JumpIfBlocked bool
}

// Decide maps an observation to an action.
func (p Policy) Decide(obs Observation) Action {
	a := Action{MoveRight: p.PreferRight, MoveLeft: !p.PreferRight}
	if obs.BlockedAhead && p.JumpIfBlocked && obs.OnGround {
		a.Jump = true
	}
	return a
}

// mover integrates actions into position and velocity against the sparse
// tile map. Constants are rough approximations of the game's walk speed,
// gravity and jump impulse; exactness does not matter for a bot that only
// needs plausible movement packets.
type mover struct {
	x, y     float32
	velX     float32
	velY     float32
	onGround bool
}

const (
	walkSpeed   = 3.0
	gravity     = 0.4
	jumpImpulse = -8.0
	maxFallVel  = 10.0
)

// Runner owns the playing-phase loop for one session.
type Runner struct {
	sess   *session.Session
	policy Policy
	tick   time.Duration
	log    *slog.Logger

	mv mover
}

// NewRunner creates a Runner for a session that has reached the playing
// state.
func NewRunner(sess *session.Session, policy Policy, tick time.Duration, log *slog.Logger) *Runner {
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{sess: sess, policy: policy, tick: tick, log: log}
	if pos, ok := sess.World().PlayerPosition(sess.Slot()); ok {
		r.mv.x, r.mv.y = pos.X, pos.Y
	}
	return r
}

// Run polls the engine, decides, moves and reports position every tick
// until ctx is cancelled or the connection drops.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := r.sess.Poll(64); err != nil {
			return fmt.Errorf("polling session: %w", err)
		}

		obs := r.observe()
		act := r.policy.Decide(obs)
		r.step(act)

		if err := r.sendControls(act); err != nil {
			return fmt.Errorf("sending controls: %w", err)
		}
	}
}

// observe builds the policy's view from the world store and the mover.
func (r *Runner) observe() Observation {
	w := r.sess.World()
	dir := float32(1)
	if !r.policy.PreferRight {
		dir = -1
	}
	frontX := r.mv.x + playerWidth
	if dir < 0 {
		frontX = r.mv.x - 1
	}
	tx := int32(frontX) / tileSize
	tyMid := (int32(r.mv.y) + playerHeight/2) / tileSize
	tyFoot := (int32(r.mv.y) + playerHeight - 1) / tileSize

	return Observation{
		X:            r.mv.x,
		Y:            r.mv.y,
		BlockedAhead: w.SolidAt(tx, tyMid) || w.SolidAt(tx, tyFoot),
		OnGround:     r.mv.onGround,
	}
}

// step advances the integrator by one tick.
func (r *Runner) step(a Action) {
	w := r.sess.World()

	r.mv.velX = 0
	if a.MoveRight {
		r.mv.velX = walkSpeed
	}
	if a.MoveLeft {
		r.mv.velX = -walkSpeed
	}
	if a.Jump && r.mv.onGround {
		r.mv.velY = jumpImpulse
		r.mv.onGround = false
	}
	r.mv.velY += gravity
	if r.mv.velY > maxFallVel {
		r.mv.velY = maxFallVel
	}

	// Horizontal move, stopped by a solid tile at the leading edge.
	nextX := r.mv.x + r.mv.velX
	lead := nextX + playerWidth
	if r.mv.velX < 0 {
		lead = nextX
	}
	tx := int32(lead) / tileSize
	tyMid := (int32(r.mv.y) + playerHeight/2) / tileSize
	if !w.SolidAt(tx, tyMid) {
		r.mv.x = nextX
	}

	// Vertical move, landing on the first solid tile under the feet.
	nextY := r.mv.y + r.mv.velY
	footTile := (int32(nextY) + playerHeight) / tileSize
	txL := int32(r.mv.x) / tileSize
	txR := (int32(r.mv.x) + playerWidth - 1) / tileSize
	if r.mv.velY > 0 && (w.SolidAt(txL, footTile) || w.SolidAt(txR, footTile)) {
		r.mv.y = float32(footTile*tileSize - playerHeight)
		r.mv.velY = 0
		r.mv.onGround = true
	} else {
		r.mv.y = nextY
		if r.mv.velY != 0 {
			r.mv.onGround = false
		}
	}

	w.SetPlayerPosition(r.sess.Slot(), r.mv.x, r.mv.y)
}

// sendControls encodes the tick's movement as a player-controls frame.
func (r *Runner) sendControls(a Action) error {
	var control byte
	if a.MoveLeft {
		control |= protocol.ControlLeft
	}
	if a.MoveRight {
		control |= protocol.ControlRight
		control |= protocol.ControlFacing
	}
	if a.Jump {
		control |= protocol.ControlJump
	}
	vx, vy := r.mv.velX, r.mv.velY
	return r.sess.Send(r.sess.Encoder().PlayerControls(protocol.PlayerControls{
		Slot:    r.sess.Slot(),
		Control: control,
		X:       r.mv.x,
		Y:       r.mv.y,
		VelX:    &vx,
		VelY:    &vy,
	}))
}

// Snapshot reports the bot's integrated position, for logging.
func (r *Runner) Snapshot() world.Position {
	return world.Position{X: r.mv.x, Y: r.mv.y}
}
