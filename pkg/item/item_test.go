package item

import (
	"bytes"
	"testing"

	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

func TestEqual(t *testing.T) {
	withNBT := New(5, 0, 1)
	withNBT.Stack.NBTData = map[string]any{"display": map[string]any{"Name": "x"}}

	tests := []struct {
		name  string
		a, b  Stack
		exact bool
		want  bool
	}{
		{"air equals air", Air(), Air(), true, true},
		{"zero count is air", New(1, 0, 0), Air(), true, true},
		{"same item same count", New(1, 2, 3), New(1, 2, 3), true, true},
		{"count differs exact", New(1, 2, 3), New(1, 2, 4), true, false},
		{"count differs loose", New(1, 2, 3), New(1, 2, 4), false, true},
		{"meta differs", New(1, 2, 3), New(1, 3, 3), false, false},
		{"id differs", New(1, 0, 1), New(2, 0, 1), false, false},
		{"nbt differs", withNBT, New(5, 0, 1), true, false},
		{"item vs air", New(1, 0, 1), Air(), false, false},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b, tt.exact); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNilAndEmptyNBTAreEqual(t *testing.T) {
	a := New(7, 0, 1)
	b := New(7, 0, 1)
	b.Stack.NBTData = map[string]any{}
	if !Equal(a, b, true) {
		t.Errorf("nil and empty NBT should compare equal")
	}
}

func TestString(t *testing.T) {
	if got := String(Air()); got != "air" {
		t.Errorf("String(air) = %q, want %q", got, "air")
	}
	if got := String(New(3, 1, 12)); got != "3:1 x12" {
		t.Errorf("String = %q, want %q", got, "3:1 x12")
	}
}

func marshal(s Stack, shieldID int32) []byte {
	var buf bytes.Buffer
	s.Marshal(protocol.NewWriter(&buf, shieldID))
	return buf.Bytes()
}

func unmarshal(b []byte, shieldID int32) Stack {
	var s Stack
	s.Marshal(protocol.NewReader(bytes.NewReader(b), shieldID, true))
	return s
}

func TestMarshalKeepsExtraDataUntilCanonicalize(t *testing.T) {
	// id 5, count 1, legacy NBT length 5, empty compound, two empty lists, one trailing byte
	legacy := []byte{
		0x0a, 0x01, 0x00, 0x00, 0x00, 0x00, 0x0f,
		0x05, 0x00, 0x0a, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	}
	canonical := []byte{
		0x0a, 0x01, 0x00, 0x00, 0x00, 0x00, 0x0a,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	s := unmarshal(legacy, 0)
	if got := marshal(s, 0); !bytes.Equal(got, legacy) {
		t.Errorf("re-encode = %x, want %x", got, legacy)
	}
	s.Canonicalize()
	if got := marshal(s, 0); !bytes.Equal(got, canonical) {
		t.Errorf("canonical encode = %x, want %x", got, canonical)
	}
}

func TestMarshalShieldBlockingTick(t *testing.T) {
	const shieldID = 355
	shield := New(shieldID, 0, 1)
	shield.BlockingTick = 40

	got := unmarshal(marshal(shield, shieldID), shieldID)
	if got.BlockingTick != 40 {
		t.Fatalf("BlockingTick = %d, want 40", got.BlockingTick)
	}

	got.BlockingTick = 41
	if again := unmarshal(marshal(got, shieldID), shieldID); again.BlockingTick != 40 {
		t.Errorf("BlockingTick = %d, want 40 before Canonicalize", again.BlockingTick)
	}
	got.Canonicalize()
	if again := unmarshal(marshal(got, shieldID), shieldID); again.BlockingTick != 41 {
		t.Errorf("BlockingTick = %d, want 41 after Canonicalize", again.BlockingTick)
	}

	// other items carry no tick
	if n := len(marshal(New(1, 0, 1), shieldID)); n != len(marshal(New(1, 0, 1), 0)) {
		t.Errorf("non-shield encoding length depends on shield id")
	}
}

func TestMarshalAir(t *testing.T) {
	if got := marshal(Air(), 0); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("air = %x, want 00", got)
	}
	if got := unmarshal([]byte{0x00}, 0); !IsAir(got) {
		t.Errorf("decoded %s, want air", String(got))
	}
}
