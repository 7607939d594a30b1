package item

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// Stack is an item stack as it appears in inventory actions: the network item
// stack plus its optional stack network ID.
//
// A stack read from the wire keeps its extra data bytes (NBT, placement and
// breaking lists, shield blocking tick) and writes them back unchanged, so it
// re-encodes to the bytes it was read from. Changes to NBTData, CanBePlacedOn,
// CanBreak or BlockingTick of such a stack only reach the encoding after
// Canonicalize.
type Stack struct {
	protocol.ItemInstance
	// BlockingTick is only encoded for shield stacks.
	BlockingTick int64

	hasStackID bool
	extra      []byte
}

// Air returns the empty stack.
func Air() Stack { return Stack{} }

// New returns a stack of count items with the given network ID and metadata.
func New(networkID int32, meta uint32, count uint16) Stack {
	var s Stack
	s.Stack.NetworkID = networkID
	s.Stack.MetadataValue = meta
	s.Stack.Count = count
	return s
}

// IsAir reports whether s holds no item.
func IsAir(s Stack) bool {
	return s.Stack.NetworkID == 0 || s.Stack.Count == 0
}

// Canonicalize drops the extra data bytes kept from decoding, so the next
// encoding is built from the parsed fields.
func (s *Stack) Canonicalize() {
	s.extra = nil
	s.hasStackID = false
}

// Marshal reads or writes s in the item instance format, depending on the
// direction of r.
func (s *Stack) Marshal(r protocol.IO) {
	if _, reading := r.(*protocol.Reader); reading {
		s.read(r)
		return
	}
	s.write(r)
}

func (s *Stack) read(r protocol.IO) {
	*s = Stack{}
	x := &s.Stack
	r.Varint32(&x.NetworkID)
	if x.NetworkID == 0 {
		return
	}
	r.Uint16(&x.Count)
	r.Varuint32(&x.MetadataValue)

	var hasStackID uint8
	r.Uint8(&hasStackID)
	if hasStackID > 1 {
		r.InvalidValue(hasStackID, "has stack network id", "must be 0 or 1")
	}
	s.hasStackID = hasStackID == 1
	if s.hasStackID {
		r.Varint32(&s.StackNetworkID)
	}
	r.Varint32(&x.BlockRuntimeID)

	r.ByteSlice(&s.extra)
	s.parseExtra(r.ShieldID())
}

func (s *Stack) parseExtra(shieldID int32) {
	r := protocol.NewReader(bytes.NewBuffer(s.extra), shieldID, true)
	x := &s.Stack

	var length int16
	r.Int16(&length)
	if length == -1 {
		var version uint8
		r.Uint8(&version)
		if version != 1 {
			r.UnknownEnumOption(version, "item user data version")
		}
		r.NBT(&x.NBTData, nbt.LittleEndian)
	} else if length > 0 {
		r.NBT(&x.NBTData, nbt.LittleEndian)
	}

	protocol.FuncSliceUint32Length(r, &x.CanBePlacedOn, r.StringUTF)
	protocol.FuncSliceUint32Length(r, &x.CanBreak, r.StringUTF)
	if x.NetworkID == shieldID {
		r.Int64(&s.BlockingTick)
	}
}

func (s *Stack) write(w protocol.IO) {
	x := &s.Stack
	w.Varint32(&x.NetworkID)
	if x.NetworkID == 0 {
		return
	}
	w.Uint16(&x.Count)
	w.Varuint32(&x.MetadataValue)

	var hasStackID uint8
	if s.hasStackID || s.StackNetworkID != 0 {
		hasStackID = 1
	}
	w.Uint8(&hasStackID)
	if hasStackID == 1 {
		w.Varint32(&s.StackNetworkID)
	}
	w.Varint32(&x.BlockRuntimeID)

	extra := s.extra
	if extra == nil {
		extra = s.encodeExtra(w.ShieldID())
	}
	w.ByteSlice(&extra)
}

func (s *Stack) encodeExtra(shieldID int32) []byte {
	var buf bytes.Buffer
	w := protocol.NewWriter(&buf, shieldID)
	x := &s.Stack

	var length int16
	if len(x.NBTData) != 0 {
		length = -1
		version := uint8(1)
		w.Int16(&length)
		w.Uint8(&version)
		w.NBT(&x.NBTData, nbt.LittleEndian)
	} else {
		w.Int16(&length)
	}

	protocol.FuncSliceUint32Length(w, &x.CanBePlacedOn, w.StringUTF)
	protocol.FuncSliceUint32Length(w, &x.CanBreak, w.StringUTF)
	if x.NetworkID == shieldID {
		w.Int64(&s.BlockingTick)
	}
	return buf.Bytes()
}

// Equal reports whether a and b are the same item. Identity is the network ID,
// metadata, block runtime ID and NBT; exact additionally compares the count.
// All air stacks are equal to each other.
func Equal(a, b Stack, exact bool) bool {
	if IsAir(a) || IsAir(b) {
		return IsAir(a) && IsAir(b)
	}
	x, y := a.Stack, b.Stack
	if x.NetworkID != y.NetworkID || x.MetadataValue != y.MetadataValue || x.BlockRuntimeID != y.BlockRuntimeID {
		return false
	}
	if exact && x.Count != y.Count {
		return false
	}
	return nbtEqual(x.NBTData, y.NBTData)
}

func nbtEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// String formats s as "id:meta x count", or "air".
func String(s Stack) string {
	if IsAir(s) {
		return "air"
	}
	str := fmt.Sprintf("%d:%d x%d", s.Stack.NetworkID, s.Stack.MetadataValue, s.Stack.Count)
	if len(s.Stack.NBTData) > 0 {
		str += " +nbt"
	}
	return str
}
