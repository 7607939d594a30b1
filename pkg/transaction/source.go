package transaction

import "fmt"

// SourceKind is the top-level tag of an inventory action: which subsystem the
// slot mutation originates from.
type SourceKind uint32

const (
	SourceContainer SourceKind = 0
	SourceWorld     SourceKind = 2 // drop/pickup item entity
	SourceCreative  SourceKind = 3
	// SourceExtended marks a client-side window with no server-side window id.
	// The window field then holds an ExtendedSource code.
	SourceExtended SourceKind = 99999
)

// Known reports whether k is one of the recognised source kinds.
func (k SourceKind) Known() bool {
	switch k {
	case SourceContainer, SourceWorld, SourceCreative, SourceExtended:
		return true
	}
	return false
}

func (k SourceKind) String() string {
	switch k {
	case SourceContainer:
		return "container"
	case SourceWorld:
		return "world"
	case SourceCreative:
		return "creative"
	case SourceExtended:
		return "extended"
	}
	return fmt.Sprintf("unknown(%d)", uint32(k))
}

// ExtendedSource identifies a virtual window for SourceExtended actions.
// Codes are negative and chosen by the client.
type ExtendedSource int32

const (
	ExtendedCraftingAddIngredient    ExtendedSource = -2
	ExtendedCraftingRemoveIngredient ExtendedSource = -3
	ExtendedCraftingResult           ExtendedSource = -4
	ExtendedCraftingUseIngredient    ExtendedSource = -5

	ExtendedAnvilInput    ExtendedSource = -10
	ExtendedAnvilMaterial ExtendedSource = -11
	ExtendedAnvilResult   ExtendedSource = -12
	ExtendedAnvilOutput   ExtendedSource = -13

	ExtendedEnchantInput    ExtendedSource = -15
	ExtendedEnchantMaterial ExtendedSource = -16
	ExtendedEnchantOutput   ExtendedSource = -17

	ExtendedTradingInput1    ExtendedSource = -20
	ExtendedTradingInput2    ExtendedSource = -21
	ExtendedTradingUseInputs ExtendedSource = -22
	ExtendedTradingOutput    ExtendedSource = -23

	ExtendedBeacon ExtendedSource = -24

	// ExtendedContainerDropContents is sent by any client-side window that
	// drops its contents when closed.
	ExtendedContainerDropContents ExtendedSource = -100
)

var extendedNames = map[ExtendedSource]string{
	ExtendedCraftingAddIngredient:    "crafting_add_ingredient",
	ExtendedCraftingRemoveIngredient: "crafting_remove_ingredient",
	ExtendedCraftingResult:           "crafting_result",
	ExtendedCraftingUseIngredient:    "crafting_use_ingredient",
	ExtendedAnvilInput:               "anvil_input",
	ExtendedAnvilMaterial:            "anvil_material",
	ExtendedAnvilResult:              "anvil_result",
	ExtendedAnvilOutput:              "anvil_output",
	ExtendedEnchantInput:             "enchant_input",
	ExtendedEnchantMaterial:          "enchant_material",
	ExtendedEnchantOutput:            "enchant_output",
	ExtendedTradingInput1:            "trading_input_1",
	ExtendedTradingInput2:            "trading_input_2",
	ExtendedTradingUseInputs:         "trading_use_inputs",
	ExtendedTradingOutput:            "trading_output",
	ExtendedBeacon:                   "beacon",
	ExtendedContainerDropContents:    "container_drop_contents",
}

// Known reports whether e is a code this package has a name for. Anything
// else is carried through the codec untouched.
func (e ExtendedSource) Known() bool {
	_, ok := extendedNames[e]
	return ok
}

func (e ExtendedSource) String() string {
	if name, ok := extendedNames[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int32(e))
}

// activeInventory returns the diagnostic inventory name tagged on a decoder
// when it reads e, or "" for codes that carry no tag.
func (e ExtendedSource) activeInventory() string {
	switch e {
	case ExtendedCraftingUseIngredient, ExtendedCraftingResult:
		return "Crafting"
	case ExtendedEnchantOutput:
		return "Enchant"
	case ExtendedTradingUseInputs, ExtendedTradingOutput:
		return "Trading"
	}
	return ""
}

// Magic slot values for actions whose slot field is a discriminator.
const (
	SlotCreativeDeleteItem uint32 = 0
	SlotCreativeCreateItem uint32 = 1

	SlotWorldDropItem   uint32 = 0
	SlotWorldPickupItem uint32 = 1
)
