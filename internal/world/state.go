// Package world keeps the client-side view of the game world current from
// decoded messages: tiles, items, NPCs and player positions. The store is
// owned by one session and never reset mid-session.
package world

import (
	"log/slog"
	"sync"

	"github.com/grottonet/grotto/internal/metrics"
	"github.com/grottonet/grotto/internal/protocol"
)

// Item is one world item slot.
type Item struct {
	Slot       int16
	X, Y       float32
	VelX, VelY float32
	Stack      int16
	Prefix     byte
	ItemID     int16
	Owner      byte
}

// Npc is one NPC slot.
type Npc struct {
	Slot       int16
	X, Y       float32
	VelX, VelY float32
	Target     int16
	NPCID      int16
	Life       int32
}

// Position is a player position in world (pixel) coordinates.
type Position struct {
	X, Y float32
}

// State is the mutable world store. Message handlers mutate it from the
// session's goroutine; readers (bot, reporting) may snapshot concurrently.
type State struct {
	mu       sync.RWMutex
	tiles    map[protocol.TilePoint]uint16
	items    map[int16]Item
	npcs     map[int16]Npc
	players  map[byte]Position
	sections int
}

// NewState creates an empty world store.
func NewState() *State {
	return &State{
		tiles:   make(map[protocol.TilePoint]uint16),
		items:   make(map[int16]Item),
		npcs:    make(map[int16]Npc),
		players: make(map[byte]Position),
	}
}

// MergeSection merges a decoded tile section, last-write-wins per
// coordinate.
func (s *State) MergeSection(ts *protocol.TileSection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pt, t := range ts.Tiles {
		s.tiles[pt] = t
	}
	s.sections++
}

// TileAt returns the tile type at an absolute tile coordinate.
func (s *State) TileAt(x, y int32) (uint16, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tiles[protocol.TilePoint{X: x, Y: y}]
	return t, ok
}

// SolidAt reports whether any tile is present at the coordinate. The store
// only holds active cells, so presence is the solidity signal available to
// a headless client.
func (s *State) SolidAt(x, y int32) bool {
	_, ok := s.TileAt(x, y)
	return ok
}

// TileCount returns the number of known tiles.
func (s *State) TileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tiles)
}

// SectionCount returns how many tile sections have been merged.
func (s *State) SectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections
}

// SetItem replaces an item slot wholesale. A zero item id clears the slot.
func (s *State) SetItem(it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ItemID == 0 {
		delete(s.items, it.Slot)
		return
	}
	s.items[it.Slot] = it
}

// SetItemOwner mutates ownership of an already-known item. Updates for
// unknown slots are dropped: the ordering hazard where ownership arrives
// before the full item update is preserved from the observed protocol, but
// counted so the loss is visible.
func (s *State) SetItemOwner(slot int16, owner byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[slot]
	if !ok {
		metrics.ItemOwnerDrops.Inc()
		slog.Debug("dropping owner update for unknown item slot", "slot", slot, "owner", owner)
		return false
	}
	it.Owner = owner
	s.items[slot] = it
	return true
}

// Item returns the item at slot.
func (s *State) Item(slot int16) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[slot]
	return it, ok
}

// ItemCount returns the number of known items.
func (s *State) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// SetNpc replaces an NPC slot wholesale. Zero life removes the slot.
func (s *State) SetNpc(n Npc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Life == 0 {
		delete(s.npcs, n.Slot)
		return
	}
	s.npcs[n.Slot] = n
}

// Npc returns the NPC at slot.
func (s *State) Npc(slot int16) (Npc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.npcs[slot]
	return n, ok
}

// NpcCount returns the number of known NPCs.
func (s *State) NpcCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.npcs)
}

// SetPlayerPosition records the latest known position for a player slot.
func (s *State) SetPlayerPosition(slot byte, x, y float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[slot] = Position{X: x, Y: y}
}

// RemovePlayer forgets a departed player slot.
func (s *State) RemovePlayer(slot byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, slot)
}

// PlayerPosition returns the latest known position for a player slot.
func (s *State) PlayerPosition(slot byte) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[slot]
	return p, ok
}
