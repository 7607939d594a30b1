package window

import (
	"fmt"
	"sort"
)

// Fixed window IDs.
const (
	IDNone      int32 = -1
	IDInventory int32 = 0
	IDFirst     int32 = 1
	IDLast      int32 = 100
	IDArmor     int32 = 120
)

// Set holds the windows a single player has open. The player inventory and
// armor windows are always open, and every player has a crafting grid that
// is not addressable by window ID.
type Set struct {
	name     string
	windows  map[int32]*Window
	crafting *Window
	nextID   int32
}

// NewSet returns the window set of a freshly joined player.
func NewSet(player string) *Set {
	s := &Set{
		name:     player,
		windows:  make(map[int32]*Window),
		crafting: New(KindCraftingGrid, SizeCraftingSmall),
		nextID:   IDFirst,
	}
	s.crafting.id = IDNone
	_ = s.OpenAt(New(KindPlayerInventory, 0), IDInventory)
	_ = s.OpenAt(New(KindArmor, 0), IDArmor)
	return s
}

// Name returns the player's name.
func (s *Set) Name() string { return s.name }

// Open assigns w the next free dynamic window ID and returns it. IDs cycle
// through IDFirst..IDLast; -1 is returned when all of them are in use.
func (s *Set) Open(w *Window) int32 {
	for range IDLast - IDFirst + 1 {
		id := s.nextID
		s.nextID++
		if s.nextID > IDLast {
			s.nextID = IDFirst
		}
		if _, taken := s.windows[id]; !taken {
			w.id = id
			s.windows[id] = w
			return id
		}
	}
	return IDNone
}

// OpenAt opens w under a fixed ID.
func (s *Set) OpenAt(w *Window, id int32) error {
	if _, taken := s.windows[id]; taken {
		return fmt.Errorf("window id %d already in use", id)
	}
	w.id = id
	s.windows[id] = w
	return nil
}

// Close closes the window with the given ID. The player inventory and armor
// windows cannot be closed.
func (s *Set) Close(id int32) bool {
	if id == IDInventory || id == IDArmor {
		return false
	}
	w, ok := s.windows[id]
	if !ok {
		return false
	}
	delete(s.windows, id)
	w.id = IDNone
	return true
}

// Window returns the open window with the given ID.
func (s *Set) Window(id int32) (*Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}

// WindowByKind returns the open window of the given kind with the lowest ID.
func (s *Set) WindowByKind(kind Kind) (*Window, bool) {
	var found *Window
	for _, w := range s.windows {
		if w.kind == kind && (found == nil || w.id < found.id) {
			found = w
		}
	}
	return found, found != nil
}

// CraftingGrid returns the player's crafting grid.
func (s *Set) CraftingGrid() *Window { return s.crafting }

// SetCraftingGrid swaps between the 2x2 inventory grid and the 3x3 crafting
// table grid. The previous grid's contents are discarded.
func (s *Set) SetCraftingGrid(big bool) {
	size := SizeCraftingSmall
	if big {
		size = SizeCraftingBig
	}
	s.crafting = New(KindCraftingGrid, size)
	s.crafting.id = IDNone
}

// Windows returns the open windows ordered by ID.
func (s *Set) Windows() []*Window {
	out := make([]*Window, 0, len(s.windows))
	for _, w := range s.windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
