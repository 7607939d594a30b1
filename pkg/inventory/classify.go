package inventory

import (
	"errors"
	"fmt"

	"github.com/go-mclib/server/pkg/item"
	"github.com/go-mclib/server/pkg/transaction"
	"github.com/go-mclib/server/pkg/window"
)

var (
	ErrUnknownSource     = errors.New("inventory: unknown source kind")
	ErrUnsupportedSource = errors.New("inventory: unsupported source")
	ErrInvalidMagicValue = errors.New("inventory: invalid magic slot value")
	ErrUnknownWindow     = errors.New("inventory: window not open")
	ErrItemNotFound      = errors.New("inventory: item not found")
)

// Player is the window state Classify consults. *window.Set implements it.
type Player interface {
	Name() string
	Window(id int32) (*window.Window, bool)
	WindowByKind(kind window.Kind) (*window.Window, bool)
	CraftingGrid() *window.Window
}

// Classify turns a decoded action into its semantic form for player p.
//
// Classification of an anvil result overwrites the anvil window's contents
// with {air, air, Old} before returning, because the client does not resend
// the anvil state when taking the result. Callers classifying a batch must do
// so in wire order.
func Classify(raw transaction.RawAction, p Player) (Action, error) {
	change := Change{Old: raw.Old, New: raw.New}

	switch raw.Source {
	case transaction.SourceContainer:
		w, ok := p.Window(raw.Window)
		if !ok {
			return nil, fmt.Errorf("%w: player %s has no open container with window ID %d", ErrUnknownWindow, p.Name(), raw.Window)
		}
		return SlotChange{Change: change, Window: w, Slot: int(raw.Slot)}, nil

	case transaction.SourceWorld:
		if raw.Slot != transaction.SlotWorldDropItem {
			return nil, fmt.Errorf("%w: world action slot %d, only drop is expected from a client", ErrInvalidMagicValue, raw.Slot)
		}
		return DropItem{change}, nil

	case transaction.SourceCreative:
		switch raw.Slot {
		case transaction.SlotCreativeDeleteItem:
			return CreativeDelete{change}, nil
		case transaction.SlotCreativeCreateItem:
			return CreativeCreate{change}, nil
		}
		return nil, fmt.Errorf("%w: creative action slot %d", ErrInvalidMagicValue, raw.Slot)

	case transaction.SourceExtended:
		return classifyExtended(raw, change, p)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownSource, uint32(raw.Source))
}

func classifyExtended(raw transaction.RawAction, change Change, p Player) (Action, error) {
	source := raw.Extended()

	switch source {
	case transaction.ExtendedCraftingAddIngredient, transaction.ExtendedCraftingRemoveIngredient:
		return SlotChange{Change: change, Window: p.CraftingGrid(), Slot: int(raw.Slot)}, nil
	case transaction.ExtendedCraftingResult:
		return CraftingTakeResult{change}, nil
	case transaction.ExtendedCraftingUseIngredient:
		return CraftingTransferMaterial{Change: change, Slot: int(raw.Slot)}, nil

	case transaction.ExtendedAnvilInput:
		return slotChangeByKind(p, window.KindAnvil, 0, change, source)
	case transaction.ExtendedAnvilMaterial:
		return slotChangeByKind(p, window.KindAnvil, 1, change, source)
	case transaction.ExtendedAnvilResult:
		w, err := windowByKind(p, window.KindAnvil, source)
		if err != nil {
			return nil, err
		}
		w.SetContents([]item.Stack{item.Air(), item.Air(), raw.Old})
		return SlotChange{Change: change, Window: w, Slot: 2}, nil
	case transaction.ExtendedAnvilOutput:
		return nil, fmt.Errorf("%w: anvil output is never sent by a client", ErrUnsupportedSource)

	case transaction.ExtendedEnchantInput:
		return enchantChange(p, 0, change, source)
	case transaction.ExtendedEnchantMaterial:
		return enchantChange(p, 1, change, source)
	case transaction.ExtendedEnchantOutput:
		return enchantChange(p, -1, change, source)

	case transaction.ExtendedTradingInput1:
		return slotChangeByKind(p, window.KindTrading, 0, change, source)
	case transaction.ExtendedTradingInput2:
		return slotChangeByKind(p, window.KindTrading, 1, change, source)
	case transaction.ExtendedTradingUseInputs:
		return TradingTakeResult{change}, nil
	case transaction.ExtendedTradingOutput:
		return TradingTransferItem{change}, nil

	case transaction.ExtendedContainerDropContents:
		// TODO: applies to every client-side window; only the crafting grid is tracked so far.
		w := p.CraftingGrid()
		// the client omits the slot for this action, so find it ourselves
		slot := w.First(raw.Old, true)
		if slot == -1 {
			return nil, fmt.Errorf("%w: %s of %s does not contain %s", ErrItemNotFound, w.Kind(), p.Name(), item.String(raw.Old))
		}
		return SlotChange{Change: change, Window: w, Slot: slot}, nil
	}
	return nil, fmt.Errorf("%w: extended source %s for player %s", ErrUnsupportedSource, source, p.Name())
}

func windowByKind(p Player, kind window.Kind, source transaction.ExtendedSource) (*window.Window, error) {
	w, ok := p.WindowByKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: player %s has no %s window open for %s", ErrUnknownWindow, p.Name(), kind, source)
	}
	return w, nil
}

func slotChangeByKind(p Player, kind window.Kind, slot int, change Change, source transaction.ExtendedSource) (Action, error) {
	w, err := windowByKind(p, kind, source)
	if err != nil {
		return nil, err
	}
	return SlotChange{Change: change, Window: w, Slot: slot}, nil
}

func enchantChange(p Player, slot int, change Change, source transaction.ExtendedSource) (Action, error) {
	w, err := windowByKind(p, window.KindEnchant, source)
	if err != nil {
		return nil, err
	}
	return EnchantChange{Change: change, Window: w, Slot: slot}, nil
}
