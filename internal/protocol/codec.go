package protocol

import (
	"fmt"

	"github.com/grottonet/grotto/internal/metrics"
	"github.com/grottonet/grotto/internal/profile"
)

// Message is the typed view of one decoded wire message.
type Message interface {
	MsgType() byte
}

// Unknown is the degraded fallback: the type tag plus the original payload
// bytes, produced for unregistered types and for per-message parse failures.
// Err is nil when the type simply has no schema.
type Unknown struct {
	Type    byte
	Payload []byte
	Err     error
}

func (u Unknown) MsgType() byte { return u.Type }

// FatalError is the server-side rejection carrying error text.
type FatalError struct {
	Text string
}

func (FatalError) MsgType() byte { return MsgFatalError }

// ConnectionApproved carries the player slot assigned by the server.
type ConnectionApproved struct {
	Slot byte
}

func (ConnectionApproved) MsgType() byte { return MsgConnectionApproved }

// RequestPassword asks the client to send the server password.
type RequestPassword struct{}

func (RequestPassword) MsgType() byte { return MsgRequestPassword }

// WorldInfo is the world metadata reply. The wire message continues with a
// long block of background, event and ore fields that have no protocol
// significance for a headless client; those are left unread.
type WorldInfo struct {
	Time             int32
	DayFlags         byte
	MoonPhase        byte
	MaxTilesX        int16
	MaxTilesY        int16
	SpawnTileX       int16
	SpawnTileY       int16
	GroundLevel      int16
	RockLayer        int16
	WorldID          int32
	WorldName        string
	GameMode         byte
	UniqueID         [16]byte
	GeneratorVersion uint64
}

func (WorldInfo) MsgType() byte { return MsgWorldInfo }

// StatusBar is loading-progress text shown during the initial tile burst.
type StatusBar struct {
	Max   int32
	Text  string
	Flags byte
}

func (StatusBar) MsgType() byte { return MsgStatusBar }

// PlayerSpawn announces a player's spawn point. Under the v0 layout only
// Slot, SpawnX and SpawnY are populated; the v1 layout adds the respawn
// timer, death counts, team and spawn context.
type PlayerSpawn struct {
	Slot         byte
	SpawnX       int32
	SpawnY       int32
	RespawnTimer int32
	DeathsPVE    int16
	DeathsPVP    int16
	Team         byte
	Context      byte
}

func (PlayerSpawn) MsgType() byte { return MsgPlayerSpawn }

// Control bit assignments for PlayerControls. Control covers movement and
// item use; Misc carries the velocity-present and gravity bits under the
// v1 layout.
const (
	ControlUp       = 0x01
	ControlDown     = 0x02
	ControlLeft     = 0x04
	ControlRight    = 0x08
	ControlJump     = 0x10
	ControlUseItem  = 0x20
	ControlFacing   = 0x40 // set = facing right
	MiscPulley      = 0x01
	MiscPulleyDir   = 0x02
	MiscHasVelocity = 0x04
	MiscGravityFlip = 0x08
)

// PlayerControls is a player movement/state update. VelX/VelY are nil when
// the layout omits them (v1 without the velocity bit).
type PlayerControls struct {
	Slot         byte
	Control      byte
	Pulley       byte // v1 only
	Misc         byte // v1 only
	Sleep        byte // v1 only
	SelectedItem byte
	X, Y         float32
	VelX, VelY   *float32
	Trailer      byte // v0 only
}

func (PlayerControls) MsgType() byte { return MsgPlayerControls }

// PlayerActive marks a player slot as joined or departed.
type PlayerActive struct {
	Slot   byte
	Active bool
}

func (PlayerActive) MsgType() byte { return MsgPlayerActive }

// PlayerLife carries current/max health for a slot.
type PlayerLife struct {
	Slot    byte
	Current int16
	Max     int16
}

func (PlayerLife) MsgType() byte { return MsgPlayerLife }

// PlayerMana carries current/max mana for a slot.
type PlayerMana struct {
	Slot    byte
	Current int16
	Max     int16
}

func (PlayerMana) MsgType() byte { return MsgPlayerMana }

// UpdateItem is a full world-item update; it replaces the slot wholesale.
type UpdateItem struct {
	Slot       int16
	X, Y       float32
	VelX, VelY float32
	Stack      int16
	Prefix     byte
	OwnIgnore  byte
	ItemID     int16
}

func (UpdateItem) MsgType() byte { return MsgUpdateItem }

// ItemOwner reassigns ownership of an already-known world item.
type ItemOwner struct {
	Slot  int16
	Owner byte
}

func (ItemOwner) MsgType() byte { return MsgItemOwner }

// UpdateNPC flag bits. Flags1 gates the four AI slots and the life block;
// Flags2 gates the multiplayer difficulty override.
const (
	NPCFlagAI0         = 0x04
	NPCFlagAI1         = 0x08
	NPCFlagAI2         = 0x10
	NPCFlagAI3         = 0x20
	NPCFlagLifePresent = 0x80
	NPCFlag2Scaled     = 0x01
)

// UpdateNPC is the NPC state update. Fields gated off by the flag bytes are
// nil, never zero-filled.
type UpdateNPC struct {
	Slot        int16
	X, Y        float32
	VelX, VelY  float32
	Target      int16
	Flags1      byte
	Flags2      byte
	AI          [4]*float32
	NPCID       int16
	PlayerCount *byte    // Flags2 scaled-stats bit
	Strength    *float32 // Flags2 scaled-stats bit
	Life        *int32   // Flags1 life-present bit; width chosen on the wire
	Release     *byte
}

func (UpdateNPC) MsgType() byte { return MsgUpdateNPC }

// Chat is legacy in-message chat (modern servers use the NetModule text
// module instead).
type Chat struct {
	Slot  byte
	Color Color
	Text  string
}

func (Chat) MsgType() byte { return MsgChat }

// PlayerBuffs lists active buff IDs for a slot. The v0 layout is a fixed
// 44-entry array (zero = empty); v1 is zero-terminated, so Buffs holds only
// the active entries.
type PlayerBuffs struct {
	Slot  byte
	Buffs []uint16
}

func (PlayerBuffs) MsgType() byte { return MsgPlayerBuffs }

// SyncEquipment sets one inventory slot of a player. Flags is nil under the
// v0 layout.
type SyncEquipment struct {
	PlayerSlot byte
	Slot       int16
	Stack      int16
	Prefix     byte
	ItemID     int16
	Flags      *byte
}

func (SyncEquipment) MsgType() byte { return MsgSyncEquipment }

// PlayerAppearance describes a player's look. VoiceVariant/VoicePitch are
// nil under the v0 layout.
type PlayerAppearance struct {
	Slot            byte
	SkinVariant     byte
	VoiceVariant    *byte
	VoicePitch      *float32
	Hair            byte
	Name            string
	HairDye         byte
	HideVisuals     byte
	HideVisuals2    byte
	HideMisc        byte
	HairColor       Color
	SkinColor       Color
	EyeColor        Color
	ShirtColor      Color
	UndershirtColor Color
	PantsColor      Color
	ShoeColor       Color
	Difficulty      byte
	TorchFlags      byte
	ShimmerFlags    byte
}

func (PlayerAppearance) MsgType() byte { return MsgPlayerAppearance }

// Teleport requests or acknowledges a teleport for a target slot.
type Teleport struct {
	Flags  byte
	Target int16
	X, Y   float32
}

func (Teleport) MsgType() byte { return MsgTeleport }

// Mode combines the two low flag bits additively: 0/2 = pending request,
// 3 = server acknowledgement.
func (t Teleport) Mode() byte { return t.Flags & 0x03 }

// StartPlaying is the payload-less signal to spawn the local player.
type StartPlaying struct{}

func (StartPlaying) MsgType() byte { return MsgStartPlaying }

// Loadout selects a player's equipment loadout.
type Loadout struct {
	Slot  byte
	Index byte
}

func (Loadout) MsgType() byte { return MsgLoadout }

// Codec decodes raw messages into typed records and is bound to one version
// profile for the connection's lifetime.
type Codec struct {
	prof *profile.Profile
}

// NewCodec creates a Codec for the given profile.
func NewCodec(p *profile.Profile) *Codec {
	return &Codec{prof: p}
}

// Profile returns the bound version profile.
func (c *Codec) Profile() *profile.Profile { return c.prof }

type decodeFunc func(*Codec, *Reader) (Message, error)

// decoders maps message type to payload schema. Types absent here route
// through the Unknown fallback.
var decoders = map[byte]decodeFunc{
	MsgFatalError:         (*Codec).decodeFatalError,
	MsgConnectionApproved: (*Codec).decodeConnectionApproved,
	MsgRequestPassword:    func(*Codec, *Reader) (Message, error) { return RequestPassword{}, nil },
	MsgWorldInfo:          (*Codec).decodeWorldInfo,
	MsgStatusBar:          (*Codec).decodeStatusBar,
	MsgTileSection:        (*Codec).decodeTileSectionMsg,
	MsgPlayerSpawn:        (*Codec).decodePlayerSpawn,
	MsgPlayerControls:     (*Codec).decodePlayerControls,
	MsgPlayerActive:       (*Codec).decodePlayerActive,
	MsgPlayerLife:         (*Codec).decodePlayerLife,
	MsgPlayerMana:         (*Codec).decodePlayerMana,
	MsgUpdateItem:         (*Codec).decodeUpdateItem,
	MsgItemOwner:          (*Codec).decodeItemOwner,
	MsgUpdateNPC:          (*Codec).decodeUpdateNPC,
	MsgChat:               (*Codec).decodeChat,
	MsgPlayerBuffs:        (*Codec).decodePlayerBuffs,
	MsgSyncEquipment:      (*Codec).decodeSyncEquipment,
	MsgPlayerAppearance:   (*Codec).decodePlayerAppearance,
	MsgTeleport:           (*Codec).decodeTeleport,
	MsgStartPlaying:       func(*Codec, *Reader) (Message, error) { return StartPlaying{}, nil },
	MsgNetModule:          (*Codec).decodeNetModule,
	MsgLoadout:            (*Codec).decodeLoadout,
}

// Decode parses raw into a typed message. Decoding never fails the stream:
// unregistered types and malformed payloads degrade to Unknown.
func (c *Codec) Decode(raw RawMessage) Message {
	fn, ok := decoders[raw.Type]
	if !ok {
		metrics.DecodeFallbacks.WithLabelValues("unknown_type").Inc()
		return Unknown{Type: raw.Type, Payload: raw.Payload}
	}
	msg, err := fn(c, NewReader(raw.Payload))
	if err != nil {
		metrics.DecodeFallbacks.WithLabelValues("malformed").Inc()
		return Unknown{Type: raw.Type, Payload: raw.Payload, Err: err}
	}
	return msg
}

func (c *Codec) decodeFatalError(r *Reader) (Message, error) {
	text, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return FatalError{Text: text}, nil
}

func (c *Codec) decodeConnectionApproved(r *Reader) (Message, error) {
	slot, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	// Some revisions append a server-flags byte; it carries nothing a
	// client needs and is ignored.
	return ConnectionApproved{Slot: slot}, nil
}

func (c *Codec) decodeWorldInfo(r *Reader) (Message, error) {
	var w WorldInfo
	var err error
	if w.Time, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if w.DayFlags, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if w.MoonPhase, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if w.MaxTilesX, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if w.MaxTilesY, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if w.SpawnTileX, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if w.SpawnTileY, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if w.GroundLevel, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if w.RockLayer, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if w.WorldID, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if w.WorldName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if w.GameMode, err = r.ReadByte(); err != nil {
		return nil, err
	}
	uid, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	copy(w.UniqueID[:], uid)
	if w.GeneratorVersion, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	return w, nil
}

func (c *Codec) decodeStatusBar(r *Reader) (Message, error) {
	var s StatusBar
	var err error
	if s.Max, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if s.Text, err = r.ReadString(); err != nil {
		return nil, err
	}
	if s.Flags, err = r.ReadByte(); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Codec) decodeTileSectionMsg(r *Reader) (Message, error) {
	data, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, err
	}
	return c.DecodeTileSection(data)
}

func (c *Codec) decodePlayerSpawn(r *Reader) (Message, error) {
	var p PlayerSpawn
	var err error
	if p.Slot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if c.prof.Variant(profile.FamilyPlayerSpawn) == 0 {
		if p.SpawnX, err = r.ReadInt32(); err != nil {
			return nil, err
		}
		if p.SpawnY, err = r.ReadInt32(); err != nil {
			return nil, err
		}
		return p, nil
	}
	x, err := r.ReadInt16()
	if err != nil {
		return nil, err
	}
	y, err := r.ReadInt16()
	if err != nil {
		return nil, err
	}
	p.SpawnX, p.SpawnY = int32(x), int32(y)
	if p.RespawnTimer, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if p.DeathsPVE, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if p.DeathsPVP, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if p.Team, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.Context, err = r.ReadByte(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Codec) decodePlayerControls(r *Reader) (Message, error) {
	var p PlayerControls
	var err error
	if p.Slot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if c.prof.Variant(profile.FamilyPlayerControls) == 0 {
		if p.Control, err = r.ReadByte(); err != nil {
			return nil, err
		}
		if p.SelectedItem, err = r.ReadByte(); err != nil {
			return nil, err
		}
		if p.X, err = r.ReadFloat32(); err != nil {
			return nil, err
		}
		if p.Y, err = r.ReadFloat32(); err != nil {
			return nil, err
		}
		vx, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		vy, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		p.VelX, p.VelY = &vx, &vy
		if p.Trailer, err = r.ReadByte(); err != nil {
			return nil, err
		}
		return p, nil
	}
	if p.Control, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.Pulley, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.Misc, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.Sleep, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.SelectedItem, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if p.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if p.Misc&MiscHasVelocity != 0 {
		vx, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		vy, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		p.VelX, p.VelY = &vx, &vy
	}
	return p, nil
}

func (c *Codec) decodePlayerActive(r *Reader) (Message, error) {
	slot, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	active, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return PlayerActive{Slot: slot, Active: active != 0}, nil
}

func (c *Codec) decodePlayerLife(r *Reader) (Message, error) {
	var p PlayerLife
	var err error
	if p.Slot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.Current, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if p.Max, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Codec) decodePlayerMana(r *Reader) (Message, error) {
	var p PlayerMana
	var err error
	if p.Slot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if p.Current, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if p.Max, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Codec) decodeUpdateItem(r *Reader) (Message, error) {
	var it UpdateItem
	var err error
	if it.Slot, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if it.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if it.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if it.VelX, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if it.VelY, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if it.Stack, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if it.Prefix, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if it.OwnIgnore, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if it.ItemID, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	return it, nil
}

func (c *Codec) decodeItemOwner(r *Reader) (Message, error) {
	slot, err := r.ReadInt16()
	if err != nil {
		return nil, err
	}
	owner, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return ItemOwner{Slot: slot, Owner: owner}, nil
}

// decodeUpdateNPC applies the conditional reads in exact bit order: the four
// AI slots by Flags1 bits 2..5, then the NPC id, then the scaled-stats block
// by Flags2, then the life block whose byte width is chosen by an explicit
// width byte. Reordering any of these corrupts the record.
func (c *Codec) decodeUpdateNPC(r *Reader) (Message, error) {
	var n UpdateNPC
	var err error
	if n.Slot, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if n.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if n.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if n.VelX, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if n.VelY, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if n.Target, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if n.Flags1, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if n.Flags2, err = r.ReadByte(); err != nil {
		return nil, err
	}
	aiBits := []byte{NPCFlagAI0, NPCFlagAI1, NPCFlagAI2, NPCFlagAI3}
	for i, bit := range aiBits {
		if n.Flags1&bit == 0 {
			continue
		}
		v, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		n.AI[i] = &v
	}
	if n.NPCID, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if n.Flags2&NPCFlag2Scaled != 0 {
		pc, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n.PlayerCount = &pc
		str, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		n.Strength = &str
	}
	if n.Flags1&NPCFlagLifePresent != 0 {
		width, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var life int32
		switch width {
		case 1:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			life = int32(b)
		case 2:
			v, err := r.ReadInt16()
			if err != nil {
				return nil, err
			}
			life = int32(v)
		case 4:
			if life, err = r.ReadInt32(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("npc life width %d not in {1,2,4}", width)
		}
		n.Life = &life
	}
	if r.Remaining() > 0 {
		rel, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n.Release = &rel
	}
	return n, nil
}

func (c *Codec) decodeChat(r *Reader) (Message, error) {
	var m Chat
	var err error
	if m.Slot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if m.Color, err = r.ReadColor(); err != nil {
		return nil, err
	}
	if m.Text, err = r.ReadString(); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Codec) decodePlayerBuffs(r *Reader) (Message, error) {
	slot, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	b := PlayerBuffs{Slot: slot}
	if c.prof.Variant(profile.FamilyPlayerBuffs) == 0 {
		for i := 0; i < legacyBuffSlots; i++ {
			v, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			if v != 0 {
				b.Buffs = append(b.Buffs, v)
			}
		}
		return b, nil
	}
	for {
		v, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return b, nil
		}
		b.Buffs = append(b.Buffs, v)
	}
}

func (c *Codec) decodeSyncEquipment(r *Reader) (Message, error) {
	var e SyncEquipment
	var err error
	if e.PlayerSlot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if e.Slot, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if e.Stack, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if e.Prefix, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if e.ItemID, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if c.prof.Variant(profile.FamilySyncEquipment) >= 1 {
		fl, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		e.Flags = &fl
	}
	return e, nil
}

func (c *Codec) decodePlayerAppearance(r *Reader) (Message, error) {
	var a PlayerAppearance
	var err error
	if a.Slot, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.SkinVariant, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if c.prof.Variant(profile.FamilySyncPlayer) >= 1 {
		vv, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		a.VoiceVariant = &vv
		vp, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}
		a.VoicePitch = &vp
	}
	if a.Hair, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if a.HairDye, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.HideVisuals, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.HideVisuals2, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.HideMisc, err = r.ReadByte(); err != nil {
		return nil, err
	}
	for _, dst := range []*Color{
		&a.HairColor, &a.SkinColor, &a.EyeColor, &a.ShirtColor,
		&a.UndershirtColor, &a.PantsColor, &a.ShoeColor,
	} {
		if *dst, err = r.ReadColor(); err != nil {
			return nil, err
		}
	}
	if a.Difficulty, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.TorchFlags, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if a.ShimmerFlags, err = r.ReadByte(); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *Codec) decodeTeleport(r *Reader) (Message, error) {
	var t Teleport
	var err error
	if t.Flags, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if t.Target, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if t.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if t.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Codec) decodeLoadout(r *Reader) (Message, error) {
	slot, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	index, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return Loadout{Slot: slot, Index: index}, nil
}

// legacyBuffSlots is the fixed buff array size under the v0 layout.
const legacyBuffSlots = 44
