package inventory

import (
	"fmt"

	"github.com/go-mclib/server/pkg/item"
	"github.com/go-mclib/server/pkg/window"
)

// Action is the semantic form of a client inventory action. The set of
// implementations is closed; switch on the concrete type.
type Action interface {
	OldItem() item.Stack
	NewItem() item.Stack
	action()
}

// Change is the item pair every action carries: what the client believes was
// there before, and what it wants there after.
type Change struct {
	Old item.Stack
	New item.Stack
}

func (c Change) OldItem() item.Stack { return c.Old }
func (c Change) NewItem() item.Stack { return c.New }
func (Change) action()               {}

// SlotChange changes one slot of a server-side window.
type SlotChange struct {
	Change
	Window *window.Window
	Slot   int
}

// DropItem drops New into the world.
type DropItem struct{ Change }

// CreativeCreate takes New from the creative menu.
type CreativeCreate struct{ Change }

// CreativeDelete destroys Old into the creative menu.
type CreativeDelete struct{ Change }

// CraftingTakeResult takes the crafted output.
type CraftingTakeResult struct{ Change }

// CraftingTransferMaterial consumes an ingredient from the crafting grid.
type CraftingTransferMaterial struct {
	Change
	Slot int
}

// EnchantChange changes the enchanting table. Slot is 0 for the input, 1 for
// the material and -1 for the enchanted output.
type EnchantChange struct {
	Change
	Window *window.Window
	Slot   int
}

// TradingTakeResult consumes the trade inputs.
type TradingTakeResult struct{ Change }

// TradingTransferItem takes the trade output.
type TradingTransferItem struct{ Change }

// Describe returns a one-line description of a.
func Describe(a Action) string {
	pair := item.String(a.OldItem()) + " -> " + item.String(a.NewItem())
	switch a := a.(type) {
	case SlotChange:
		return fmt.Sprintf("slot_change %s[%d] %s", a.Window, a.Slot, pair)
	case DropItem:
		return "drop_item " + pair
	case CreativeCreate:
		return "creative_create " + pair
	case CreativeDelete:
		return "creative_delete " + pair
	case CraftingTakeResult:
		return "crafting_take_result " + pair
	case CraftingTransferMaterial:
		return fmt.Sprintf("crafting_transfer_material [%d] %s", a.Slot, pair)
	case EnchantChange:
		return fmt.Sprintf("enchant_change %s[%d] %s", a.Window, a.Slot, pair)
	case TradingTakeResult:
		return "trading_take_result " + pair
	case TradingTransferItem:
		return "trading_transfer_item " + pair
	}
	return fmt.Sprintf("%T %s", a, pair)
}
