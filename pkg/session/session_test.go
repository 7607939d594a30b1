package session

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/go-mclib/server/pkg/inventory"
	"github.com/go-mclib/server/pkg/item"
	"github.com/go-mclib/server/pkg/transaction"
	"github.com/go-mclib/server/pkg/window"
)

type recordingModule struct {
	session *Session
	seen    []*Transaction
	resets  int
}

func (m *recordingModule) Name() string                      { return "recording" }
func (m *recordingModule) Init(s *Session)                   { m.session = s }
func (m *recordingModule) HandleTransaction(tx *Transaction) { m.seen = append(m.seen, tx) }
func (m *recordingModule) Reset()                            { m.resets++ }

func newSession(t *testing.T) (*Session, *recordingModule) {
	t.Helper()
	s := New("Steve", zerolog.Nop())
	m := &recordingModule{}
	s.Register(m)
	return s, m
}

func anvilResult(old item.Stack) transaction.RawAction {
	return transaction.RawAction{Source: transaction.SourceExtended, Window: int32(transaction.ExtendedAnvilResult), Old: old}
}

func TestHandleTransactionClassifiesInOrder(t *testing.T) {
	s, m := newSession(t)
	anvil := window.New(window.KindAnvil, 0)
	anvil.SetContents([]item.Stack{item.New(1, 0, 1), item.New(2, 0, 1), item.New(3, 0, 1)})
	s.Windows.Open(anvil)

	repaired := item.New(307, 0, 1)
	payload := transaction.MarshalList([]transaction.RawAction{
		anvilResult(repaired),
		{Source: transaction.SourceContainer, Window: window.IDInventory, Slot: 4, Old: item.Air(), New: repaired},
	}, 0)

	tx, err := s.HandleTransaction(payload)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(tx.Actions) != 2 {
		t.Fatalf("classified %d actions, want 2", len(tx.Actions))
	}
	if sc, ok := tx.Actions[0].(inventory.SlotChange); !ok || sc.Window != anvil || sc.Slot != 2 {
		t.Errorf("action 0 = %s, want anvil slot 2", inventory.Describe(tx.Actions[0]))
	}
	if !item.Equal(anvil.Slot(2), repaired, true) || !item.IsAir(anvil.Slot(0)) {
		t.Errorf("anvil contents not overwritten: %v", anvil.Contents())
	}
	if !bytes.Equal(tx.Payload, payload) {
		t.Errorf("payload not kept verbatim")
	}
	if len(m.seen) != 1 || m.seen[0] != tx {
		t.Errorf("module saw %d transactions, want 1", len(m.seen))
	}
}

func TestHandleTransactionStopsAtFirstFailure(t *testing.T) {
	s, m := newSession(t)
	anvil := window.New(window.KindAnvil, 0)
	anvil.SetContents([]item.Stack{item.New(1, 0, 1)})
	s.Windows.Open(anvil)

	payload := transaction.MarshalList([]transaction.RawAction{
		{Source: transaction.SourceCreative, Slot: 1},
		{Source: transaction.SourceWorld, Slot: 1},
		anvilResult(item.New(9, 0, 1)),
	}, 0)

	tx, err := s.HandleTransaction(payload)
	if !errors.Is(err, inventory.ErrInvalidMagicValue) {
		t.Fatalf("expected ErrInvalidMagicValue, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "action 1:") {
		t.Errorf("error %q should name action 1", err)
	}
	if tx == nil || len(tx.Actions) != 1 || len(tx.Raw) != 3 {
		t.Fatalf("tx = %+v, want 1 classified of 3 raw", tx)
	}
	if !item.Equal(anvil.Slot(0), item.New(1, 0, 1), true) {
		t.Errorf("anvil result after a failed action must not run")
	}
	if len(m.seen) != 1 || m.seen[0].Err == nil {
		t.Errorf("module should see the failed transaction")
	}
}

func TestHandleTransactionAnvilEffectBeforeLaterFailure(t *testing.T) {
	s, _ := newSession(t)
	anvil := window.New(window.KindAnvil, 0)
	s.Windows.Open(anvil)

	payload := transaction.MarshalList([]transaction.RawAction{
		anvilResult(item.New(9, 0, 1)),
		{Source: transaction.SourceExtended, Window: int32(transaction.ExtendedAnvilOutput)},
	}, 0)

	_, err := s.HandleTransaction(payload)
	if !errors.Is(err, inventory.ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource, got %v", err)
	}
	if !item.Equal(anvil.Slot(2), item.New(9, 0, 1), true) {
		t.Errorf("anvil slot 2 = %s, want 9:0 x1", item.String(anvil.Slot(2)))
	}
}

func TestHandleTransactionMalformed(t *testing.T) {
	s, m := newSession(t)
	payload := transaction.MarshalList([]transaction.RawAction{{Source: transaction.SourceCreative}}, 0)

	tx, err := s.HandleTransaction(payload[:len(payload)-1])
	if !errors.Is(err, transaction.ErrMalformedStream) {
		t.Fatalf("expected ErrMalformedStream, got %v", err)
	}
	if tx != nil || len(m.seen) != 0 {
		t.Errorf("malformed payload must not reach modules")
	}
}

func TestHandleTransactionActiveInventory(t *testing.T) {
	s, _ := newSession(t)
	var tags []string
	s.RegisterHandler(func(_ *Session, tx *Transaction) { tags = append(tags, tx.ActiveInventory) })

	payload := transaction.MarshalList([]transaction.RawAction{
		{Source: transaction.SourceExtended, Window: int32(transaction.ExtendedTradingOutput), New: item.New(388, 0, 1)},
	}, 0)
	if _, err := s.Submit(bytes.NewReader(payload)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(tags) != 1 || tags[0] != "Trading" {
		t.Errorf("handler tags = %v, want [Trading]", tags)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	s, m := newSession(t)
	if s.Module("recording") != m || m.session != s {
		t.Fatalf("module not initialised")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on duplicate registration")
		}
	}()
	s.Register(&recordingModule{})
}

func TestReset(t *testing.T) {
	s, m := newSession(t)
	s.Windows.Open(window.New(window.KindAnvil, 0))
	s.Reset()
	if _, ok := s.Windows.WindowByKind(window.KindAnvil); ok {
		t.Errorf("anvil still open after reset")
	}
	if s.Player() != "Steve" || m.resets != 1 {
		t.Errorf("player = %q, resets = %d", s.Player(), m.resets)
	}
}
