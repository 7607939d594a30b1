package transaction

import (
	"github.com/go-mclib/server/pkg/item"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// RawAction is one inventory action as it travels on the wire. The meaning of
// Window and Slot depends on Source; see Classify in package inventory.
type RawAction struct {
	Source SourceKind
	// Window is a container window ID for SourceContainer, and an
	// ExtendedSource code for SourceExtended.
	Window int32
	// WorldCount is only present for SourceWorld. It counts stacked identical
	// actions (pickups) and is informational.
	WorldCount uint32
	Slot       uint32
	Old        item.Stack
	New        item.Stack
}

// Extended returns Window interpreted as an extended source code.
func (a RawAction) Extended() ExtendedSource {
	return ExtendedSource(a.Window)
}

// Marshal reads or writes a depending on the direction of r. Only the prefix
// after Source varies by kind; Slot, Old and New always follow in that order.
func (a *RawAction) Marshal(r protocol.IO) {
	source := uint32(a.Source)
	r.Varuint32(&source)
	a.Source = SourceKind(source)

	switch a.Source {
	case SourceContainer, SourceExtended:
		r.Varint32(&a.Window)
	case SourceWorld:
		r.Varuint32(&a.WorldCount)
	case SourceCreative:
	}

	r.Varuint32(&a.Slot)
	a.Old.Marshal(r)
	a.New.Marshal(r)
}
