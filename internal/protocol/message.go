package protocol

// RawMessage is one framed wire message as produced by the Framer.
// Length is the total frame size including the 2-byte length field itself;
// Payload excludes the length field and the type byte.
type RawMessage struct {
	Length  uint16
	Type    byte
	Payload []byte
}

// Message type IDs, as observed on the wire. The set is not exhaustive:
// unregistered types flow through the Unknown fallback in the codec.
const (
	MsgConnect            = 0x01 // C→S version handshake
	MsgFatalError         = 0x02 // S→C rejection with error text
	MsgConnectionApproved = 0x03 // S→C assigned player slot
	MsgPlayerAppearance   = 0x04
	MsgSyncEquipment      = 0x05 // one inventory slot
	MsgRequestWorldInfo   = 0x06
	MsgWorldInfo          = 0x07
	MsgRequestTileData    = 0x08 // initial tile data around spawn
	MsgStatusBar          = 0x09
	MsgTileSection        = 0x0A // compressed rectangular tile grid
	MsgTileFrameSection   = 0x0B
	MsgPlayerSpawn        = 0x0C
	MsgPlayerControls     = 0x0D
	MsgPlayerActive       = 0x0E
	MsgPlayerLife         = 0x10
	MsgModifyTile         = 0x11
	MsgSetTime            = 0x12
	MsgUpdateItem         = 0x15
	MsgItemOwner          = 0x16
	MsgUpdateNPC          = 0x17
	MsgChat               = 0x19
	MsgRequestPassword    = 0x25
	MsgSendPassword       = 0x26
	MsgReleaseItem        = 0x27
	MsgPlayerMana         = 0x2A
	MsgStartPlaying       = 0x31 // S→C spawn signal, no payload
	MsgPlayerBuffs        = 0x32
	MsgEvilBalance        = 0x39
	MsgTeleport           = 0x41
	MsgClientUUID         = 0x44
	MsgNetModule          = 0x52 // generic sub-protocol envelope
	MsgLoadout            = 0x93
)

// NetModule IDs carried inside the MsgNetModule envelope.
const (
	ModuleLiquid = 0x00
	ModuleText   = 0x01
)

// FrameHeaderSize is the fixed prefix of every frame: u16 length + u8 type.
const FrameHeaderSize = 3

// MessageName returns a short human-readable name for a message type,
// used only for logging and dumps.
func MessageName(t byte) string {
	switch t {
	case MsgConnect:
		return "Connect"
	case MsgFatalError:
		return "FatalError"
	case MsgConnectionApproved:
		return "ConnectionApproved"
	case MsgPlayerAppearance:
		return "PlayerAppearance"
	case MsgSyncEquipment:
		return "SyncEquipment"
	case MsgRequestWorldInfo:
		return "RequestWorldInfo"
	case MsgWorldInfo:
		return "WorldInfo"
	case MsgRequestTileData:
		return "RequestTileData"
	case MsgStatusBar:
		return "StatusBar"
	case MsgTileSection:
		return "TileSection"
	case MsgTileFrameSection:
		return "TileFrameSection"
	case MsgPlayerSpawn:
		return "PlayerSpawn"
	case MsgPlayerControls:
		return "PlayerControls"
	case MsgPlayerActive:
		return "PlayerActive"
	case MsgPlayerLife:
		return "PlayerLife"
	case MsgUpdateItem:
		return "UpdateItem"
	case MsgItemOwner:
		return "ItemOwner"
	case MsgUpdateNPC:
		return "UpdateNPC"
	case MsgChat:
		return "Chat"
	case MsgRequestPassword:
		return "RequestPassword"
	case MsgSendPassword:
		return "SendPassword"
	case MsgPlayerMana:
		return "PlayerMana"
	case MsgStartPlaying:
		return "StartPlaying"
	case MsgPlayerBuffs:
		return "PlayerBuffs"
	case MsgTeleport:
		return "Teleport"
	case MsgClientUUID:
		return "ClientUUID"
	case MsgNetModule:
		return "NetModule"
	case MsgLoadout:
		return "Loadout"
	default:
		return "Unknown"
	}
}
