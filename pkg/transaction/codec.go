package transaction

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// ErrMalformedStream is returned when the input ends early or holds an
// invalid primitive. The stream position is unusable after it.
var ErrMalformedStream = errors.New("transaction: malformed stream")

// ByteReader is the input a Decoder needs.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// Decoder reads inventory actions from a stream. Only canonical encodings are
// accepted: an action whose bytes differ from its own re-encoding (an overlong
// varint, for example) is rejected, so every decoded action encodes back to the
// exact bytes it was read from.
type Decoder struct {
	r        *protocol.Reader
	src      *recordingReader
	shieldID int32

	// ActiveInventory is set to "Crafting", "Enchant" or "Trading" when an
	// extended action of that window family is read. It is a diagnostic tag
	// for the caller's logs and never changes how later actions decode.
	ActiveInventory string
}

// NewDecoder returns a Decoder reading from r. shieldID is the network ID of
// the shield item, whose stacks carry an extra field in the item encoding.
func NewDecoder(r ByteReader, shieldID int32) *Decoder {
	src := &recordingReader{r: r}
	return &Decoder{r: protocol.NewReader(src, shieldID, true), src: src, shieldID: shieldID}
}

// Decode reads one action into a.
func (d *Decoder) Decode(a *RawAction) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = malformed(v)
		}
	}()
	d.src.reset()
	a.Marshal(d.r)
	if err := d.canonical(a.Marshal); err != nil {
		return err
	}
	if a.Source == SourceExtended {
		if tag := a.Extended().activeInventory(); tag != "" {
			d.ActiveInventory = tag
		}
	}
	return nil
}

// DecodeList reads a varuint32 count followed by that many actions.
func (d *Decoder) DecodeList() ([]RawAction, error) {
	var count uint32
	if err := d.readCount(&count); err != nil {
		return nil, err
	}
	actions := make([]RawAction, 0, min(count, 64))
	for i := uint32(0); i < count; i++ {
		var a RawAction
		if err := d.Decode(&a); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (d *Decoder) readCount(count *uint32) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = malformed(v)
		}
	}()
	d.src.reset()
	d.r.Varuint32(count)
	return d.canonical(func(w protocol.IO) { w.Varuint32(count) })
}

// canonical re-encodes with m and compares against the bytes consumed since
// the last reset.
func (d *Decoder) canonical(m func(protocol.IO)) error {
	var buf bytes.Buffer
	m(protocol.NewWriter(&buf, d.shieldID))
	if !bytes.Equal(buf.Bytes(), d.src.buf) {
		return fmt.Errorf("%w: non-canonical encoding %x", ErrMalformedStream, d.src.buf)
	}
	return nil
}

func malformed(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrMalformedStream, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformedStream, v)
}

// recordingReader keeps the bytes read since the last reset. Reads are full
// reads, so a short slice fails instead of leaving zero bytes behind.
type recordingReader struct {
	r   ByteReader
	buf []byte
}

func (r *recordingReader) reset() { r.buf = r.buf[:0] }

func (r *recordingReader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(r.r, p)
	r.buf = append(r.buf, p[:n]...)
	return n, err
}

func (r *recordingReader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == nil {
		r.buf = append(r.buf, b)
	}
	return b, err
}

// Encoder writes inventory actions to a stream.
type Encoder struct {
	buf bytes.Buffer
	pw  *protocol.Writer
	w   io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, shieldID int32) *Encoder {
	e := &Encoder{w: w}
	e.pw = protocol.NewWriter(&e.buf, shieldID)
	return e
}

// Encode writes a to the underlying writer.
func (e *Encoder) Encode(a RawAction) error {
	a.Marshal(e.pw)
	return e.flush()
}

// EncodeList writes a varuint32 count followed by each action.
func (e *Encoder) EncodeList(actions []RawAction) error {
	count := uint32(len(actions))
	e.pw.Varuint32(&count)
	for i := range actions {
		a := actions[i]
		a.Marshal(e.pw)
	}
	return e.flush()
}

func (e *Encoder) flush() error {
	defer e.buf.Reset()
	_, err := e.w.Write(e.buf.Bytes())
	return err
}

// Decode reads a single action from r.
func Decode(r ByteReader, shieldID int32) (RawAction, error) {
	var a RawAction
	err := NewDecoder(r, shieldID).Decode(&a)
	return a, err
}

// Encode writes a single action to w.
func Encode(w io.Writer, a RawAction, shieldID int32) error {
	return NewEncoder(w, shieldID).Encode(a)
}

// Unmarshal decodes a list payload as produced by MarshalList.
func Unmarshal(payload []byte, shieldID int32) ([]RawAction, error) {
	return NewDecoder(bytes.NewReader(payload), shieldID).DecodeList()
}

// MarshalList encodes actions as a count-prefixed list.
func MarshalList(actions []RawAction, shieldID int32) []byte {
	var buf bytes.Buffer
	// writes to a bytes.Buffer cannot fail
	_ = NewEncoder(&buf, shieldID).EncodeList(actions)
	return buf.Bytes()
}
