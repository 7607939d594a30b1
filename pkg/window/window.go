package window

import (
	"fmt"
	"strings"

	"github.com/go-mclib/server/pkg/item"
)

// Kind is the type of inventory a window shows.
type Kind int32

const (
	KindContainer Kind = iota // chest, barrel, dispenser...
	KindPlayerInventory
	KindArmor
	KindCraftingGrid
	KindAnvil
	KindEnchant
	KindTrading
	KindBeacon
)

// Slot counts for fixed-size windows.
const (
	SizePlayerInventory = 36
	SizeArmor           = 4
	SizeCraftingSmall   = 4 // 2x2 grid in the player inventory
	SizeCraftingBig     = 9 // 3x3 crafting table grid
	SizeAnvil           = 3 // input, material, result
	SizeEnchant         = 2 // input, lapis
	SizeTrading         = 3 // input 1, input 2, result
	SizeBeacon          = 1
	SizeContainer       = 27 // single chest
)

var kindNames = map[Kind]string{
	KindContainer:       "container",
	KindPlayerInventory: "inventory",
	KindArmor:           "armor",
	KindCraftingGrid:    "crafting_grid",
	KindAnvil:           "anvil",
	KindEnchant:         "enchant",
	KindTrading:         "trading",
	KindBeacon:          "beacon",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int32(k))
}

// DefaultSize returns the slot count a window of kind k opens with.
func (k Kind) DefaultSize() int {
	switch k {
	case KindPlayerInventory:
		return SizePlayerInventory
	case KindArmor:
		return SizeArmor
	case KindCraftingGrid:
		return SizeCraftingSmall
	case KindAnvil:
		return SizeAnvil
	case KindEnchant:
		return SizeEnchant
	case KindTrading:
		return SizeTrading
	case KindBeacon:
		return SizeBeacon
	}
	return SizeContainer
}

// ParseKind returns the Kind named s (as printed by Kind.String).
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown window kind %q", s)
}

// Window is an inventory currently open for a player. It is owned by the
// player's session and is not safe for concurrent use.
type Window struct {
	id    int32
	kind  Kind
	slots []item.Stack
}

// CheckSize reports whether a window of kind k can have size slots. Zero
// selects the default size. Only containers are freely sized; the crafting
// grid is 2x2 or 3x3 and every other kind has exactly its default size.
func (k Kind) CheckSize(size int) error {
	switch {
	case size == 0:
		return nil
	case size < 0:
		return fmt.Errorf("%s window size %d is negative", k, size)
	case k == KindContainer:
		return nil
	case k == KindCraftingGrid:
		if size != SizeCraftingSmall && size != SizeCraftingBig {
			return fmt.Errorf("crafting grid size must be %d or %d, got %d", SizeCraftingSmall, SizeCraftingBig, size)
		}
		return nil
	case size != k.DefaultSize():
		return fmt.Errorf("%s window has %d slots, got %d", k, k.DefaultSize(), size)
	}
	return nil
}

// New returns a closed window of the given kind with size air slots. Sizes
// rejected by CheckSize, and 0, use the kind's default size.
func New(kind Kind, size int) *Window {
	if size == 0 || kind.CheckSize(size) != nil {
		size = kind.DefaultSize()
	}
	return &Window{id: -1, kind: kind, slots: make([]item.Stack, size)}
}

// ID returns the window ID assigned when the window was opened, or -1.
func (w *Window) ID() int32 { return w.id }

func (w *Window) Kind() Kind { return w.kind }

func (w *Window) Size() int { return len(w.slots) }

// Slot returns the stack at index, or air if index is out of range.
func (w *Window) Slot(index int) item.Stack {
	if index < 0 || index >= len(w.slots) {
		return item.Air()
	}
	return w.slots[index]
}

// SetSlot replaces the stack at index.
func (w *Window) SetSlot(index int, s item.Stack) error {
	if index < 0 || index >= len(w.slots) {
		return fmt.Errorf("window %d (%s): slot %d out of range [0, %d)", w.id, w.kind, index, len(w.slots))
	}
	w.slots[index] = s
	return nil
}

// SetContents replaces every slot. Slots past the end of items become air and
// items past the window size are ignored.
func (w *Window) SetContents(items []item.Stack) {
	for i := range w.slots {
		if i < len(items) {
			w.slots[i] = items[i]
		} else {
			w.slots[i] = item.Air()
		}
	}
}

// Contents returns a copy of all slots.
func (w *Window) Contents() []item.Stack {
	out := make([]item.Stack, len(w.slots))
	copy(out, w.slots)
	return out
}

// First returns the lowest slot index holding target, or -1. With exact set
// the count must match as well.
func (w *Window) First(target item.Stack, exact bool) int {
	for i, s := range w.slots {
		if item.Equal(s, target, exact) {
			return i
		}
	}
	return -1
}

func (w *Window) String() string {
	return fmt.Sprintf("%s#%d", w.kind, w.id)
}
