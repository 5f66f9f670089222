package protocol

import "github.com/grottonet/grotto/internal/profile"

// Encoder builds outbound wire frames. Every builder returns a complete
// frame ready for the transport; for versioned families the layout variant
// is taken from the bound profile, so selection is deterministic before the
// first byte is written.
type Encoder struct {
	prof *profile.Profile
}

// NewEncoder creates an Encoder for the given profile.
func NewEncoder(p *profile.Profile) *Encoder {
	return &Encoder{prof: p}
}

// Connect builds the version handshake greeting.
func (e *Encoder) Connect() []byte {
	w := NewWriter()
	w.WriteString(e.prof.Handshake)
	return w.Frame(MsgConnect)
}

// Password builds the server-password reply.
func (e *Encoder) Password(password string) []byte {
	w := NewWriter()
	w.WriteString(password)
	return w.Frame(MsgSendPassword)
}

// Appearance builds the player-appearance message. Under the v1 layout the
// voice variant and pitch are inserted before the hair byte.
func (e *Encoder) Appearance(a PlayerAppearance) []byte {
	w := NewWriter()
	w.WriteUint8(a.Slot)
	w.WriteUint8(a.SkinVariant)
	if e.prof.Variant(profile.FamilySyncPlayer) >= 1 {
		var voice byte
		var pitch float32
		if a.VoiceVariant != nil {
			voice = *a.VoiceVariant
		}
		if a.VoicePitch != nil {
			pitch = *a.VoicePitch
		}
		w.WriteUint8(voice)
		w.WriteFloat32(pitch)
	}
	w.WriteUint8(a.Hair)
	w.WriteString(a.Name)
	w.WriteUint8(a.HairDye)
	w.WriteUint8(a.HideVisuals)
	w.WriteUint8(a.HideVisuals2)
	w.WriteUint8(a.HideMisc)
	w.WriteColor(a.HairColor)
	w.WriteColor(a.SkinColor)
	w.WriteColor(a.EyeColor)
	w.WriteColor(a.ShirtColor)
	w.WriteColor(a.UndershirtColor)
	w.WriteColor(a.PantsColor)
	w.WriteColor(a.ShoeColor)
	w.WriteUint8(a.Difficulty)
	w.WriteUint8(a.TorchFlags)
	w.WriteUint8(a.ShimmerFlags)
	return w.Frame(MsgPlayerAppearance)
}

// ClientUUID builds the client-identifier message.
func (e *Encoder) ClientUUID(uuid string) []byte {
	w := NewWriter()
	w.WriteString(uuid)
	return w.Frame(MsgClientUUID)
}

// PlayerLife builds the health message.
func (e *Encoder) PlayerLife(slot byte, current, maximum int16) []byte {
	w := NewWriter()
	w.WriteUint8(slot)
	w.WriteInt16(current)
	w.WriteInt16(maximum)
	return w.Frame(MsgPlayerLife)
}

// PlayerMana builds the mana message.
func (e *Encoder) PlayerMana(slot byte, current, maximum int16) []byte {
	w := NewWriter()
	w.WriteUint8(slot)
	w.WriteInt16(current)
	w.WriteInt16(maximum)
	return w.Frame(MsgPlayerMana)
}

// PlayerBuffs builds the buff list. The v0 layout is a fixed 44-entry u16
// array (zero-padded); v1 writes the entries followed by a zero sentinel.
func (e *Encoder) PlayerBuffs(slot byte, buffs []uint16) []byte {
	w := NewWriter()
	w.WriteUint8(slot)
	if e.prof.Variant(profile.FamilyPlayerBuffs) == 0 {
		for i := 0; i < legacyBuffSlots; i++ {
			if i < len(buffs) {
				w.WriteUint16(buffs[i])
			} else {
				w.WriteUint16(0)
			}
		}
		return w.Frame(MsgPlayerBuffs)
	}
	for _, b := range buffs {
		if b == 0 {
			continue
		}
		w.WriteUint16(b)
	}
	w.WriteUint16(0)
	return w.Frame(MsgPlayerBuffs)
}

// Loadout builds the loadout-selection message.
func (e *Encoder) Loadout(slot, index byte) []byte {
	w := NewWriter()
	w.WriteUint8(slot)
	w.WriteUint8(index)
	w.WriteUint8(0)
	w.WriteUint8(0)
	return w.Frame(MsgLoadout)
}

// SyncEquipment builds one inventory-slot sync. The v1 layout appends a
// trailing flags byte.
func (e *Encoder) SyncEquipment(eq SyncEquipment) []byte {
	w := NewWriter()
	w.WriteUint8(eq.PlayerSlot)
	w.WriteInt16(eq.Slot)
	w.WriteInt16(eq.Stack)
	w.WriteUint8(eq.Prefix)
	w.WriteInt16(eq.ItemID)
	if e.prof.Variant(profile.FamilySyncEquipment) >= 1 {
		var fl byte
		if eq.Flags != nil {
			fl = *eq.Flags
		}
		w.WriteUint8(fl)
	}
	return w.Frame(MsgSyncEquipment)
}

// RequestWorldInfo builds the payload-less world-info request. The server
// tolerates duplicates, so it is safe to re-send on a retry timer.
func (e *Encoder) RequestWorldInfo() []byte {
	return NewWriter().Frame(MsgRequestWorldInfo)
}

// RequestTileData builds the initial-tile-data request around spawn.
func (e *Encoder) RequestTileData(spawnX, spawnY int32) []byte {
	w := NewWriter()
	w.WriteInt32(spawnX)
	w.WriteInt32(spawnY)
	return w.Frame(MsgRequestTileData)
}

// PlayerSpawn builds the spawn announcement. v0 carries i32 coordinates
// only; v1 switches to i16 coordinates and adds the respawn timer, death
// counts, team and spawn context.
func (e *Encoder) PlayerSpawn(p PlayerSpawn) []byte {
	w := NewWriter()
	w.WriteUint8(p.Slot)
	if e.prof.Variant(profile.FamilyPlayerSpawn) == 0 {
		w.WriteInt32(p.SpawnX)
		w.WriteInt32(p.SpawnY)
		return w.Frame(MsgPlayerSpawn)
	}
	w.WriteInt16(int16(p.SpawnX))
	w.WriteInt16(int16(p.SpawnY))
	w.WriteInt32(p.RespawnTimer)
	w.WriteInt16(p.DeathsPVE)
	w.WriteInt16(p.DeathsPVP)
	w.WriteUint8(p.Team)
	w.WriteUint8(p.Context)
	return w.Frame(MsgPlayerSpawn)
}

// PlayerControls builds the movement update. v0 is one control byte plus
// selected item, position and velocity with a trailing byte; v1 bit-packs
// four flag bytes and sends velocity only when the velocity bit is set.
func (e *Encoder) PlayerControls(p PlayerControls) []byte {
	w := NewWriter()
	w.WriteUint8(p.Slot)
	if e.prof.Variant(profile.FamilyPlayerControls) == 0 {
		w.WriteUint8(p.Control)
		w.WriteUint8(p.SelectedItem)
		w.WriteFloat32(p.X)
		w.WriteFloat32(p.Y)
		var vx, vy float32
		if p.VelX != nil {
			vx = *p.VelX
		}
		if p.VelY != nil {
			vy = *p.VelY
		}
		w.WriteFloat32(vx)
		w.WriteFloat32(vy)
		w.WriteUint8(p.Trailer)
		return w.Frame(MsgPlayerControls)
	}
	misc := p.Misc
	if p.VelX != nil || p.VelY != nil {
		misc |= MiscHasVelocity
	}
	w.WriteUint8(p.Control)
	w.WriteUint8(p.Pulley)
	w.WriteUint8(misc)
	w.WriteUint8(p.Sleep)
	w.WriteUint8(p.SelectedItem)
	w.WriteFloat32(p.X)
	w.WriteFloat32(p.Y)
	if misc&MiscHasVelocity != 0 {
		var vx, vy float32
		if p.VelX != nil {
			vx = *p.VelX
		}
		if p.VelY != nil {
			vy = *p.VelY
		}
		w.WriteFloat32(vx)
		w.WriteFloat32(vy)
	}
	return w.Frame(MsgPlayerControls)
}

// Teleport builds a teleport message; with both low flag bits set it acts
// as the acknowledge for a pending request.
func (e *Encoder) Teleport(t Teleport) []byte {
	w := NewWriter()
	w.WriteUint8(t.Flags)
	w.WriteInt16(t.Target)
	w.WriteFloat32(t.X)
	w.WriteFloat32(t.Y)
	return w.Frame(MsgTeleport)
}

// TeleportAck builds the acknowledgement for a pending teleport aimed at
// the local player.
func (e *Encoder) TeleportAck(target int16, x, y float32) []byte {
	return e.Teleport(Teleport{Flags: 0x03, Target: target, X: x, Y: y})
}

// ChatText builds a text module inside the NetModule envelope.
func (e *Encoder) ChatText(command, text string) []byte {
	w := NewWriter()
	w.WriteUint16(ModuleText)
	w.WriteVarString(command)
	w.WriteVarString(text)
	return w.Frame(MsgNetModule)
}
