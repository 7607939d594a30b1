package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-mclib/server/pkg/inventory"
	"github.com/go-mclib/server/pkg/transaction"
	"github.com/go-mclib/server/pkg/window"
)

// Transaction is one decoded inventory transaction of a player.
type Transaction struct {
	Player     string
	ReceivedAt time.Time
	// Payload is the count-prefixed action list exactly as received.
	Payload []byte
	Raw     []transaction.RawAction
	// Actions holds the classified form of Raw[:len(Actions)]. It is shorter
	// than Raw when classification stopped at a failing action.
	Actions []inventory.Action
	// ActiveInventory is the decoder's diagnostic window tag, if any.
	ActiveInventory string
	Err             error
}

// Session processes the inventory transactions of one player. It is not safe
// for concurrent use; all calls must come from the goroutine that owns the
// player's state.
type Session struct {
	Windows  *window.Set
	Logger   zerolog.Logger
	ShieldID int32

	modules       []Module
	modulesByName map[string]Module
	handlers      []Handler

	now func() time.Time
}

// New creates a session for player with a fresh window set. Register modules
// before handling transactions.
func New(player string, logger zerolog.Logger) *Session {
	return &Session{
		Windows:       window.NewSet(player),
		Logger:        logger.With().Str("player", player).Logger(),
		modulesByName: make(map[string]Module),
		now:           time.Now,
	}
}

// Player returns the player's name.
func (s *Session) Player() string { return s.Windows.Name() }

// Register adds a module to the session. Panics on duplicate name.
func (s *Session) Register(m Module) {
	if _, exists := s.modulesByName[m.Name()]; exists {
		panic("module already registered: " + m.Name())
	}
	s.modules = append(s.modules, m)
	s.modulesByName[m.Name()] = m
	m.Init(s)
}

// Module returns a registered module by name, or nil.
func (s *Session) Module(name string) Module {
	return s.modulesByName[name]
}

// RegisterHandler appends a lightweight transaction callback.
func (s *Session) RegisterHandler(h Handler) {
	s.handlers = append(s.handlers, h)
}

// HandleTransaction decodes a count-prefixed action list and classifies each
// action in wire order against the player's windows. Malformed payloads are
// rejected as a whole. Otherwise classification stops at the first failing
// action; the failure is stored in the returned transaction and returned.
// Registered modules and handlers see every transaction that decoded.
func (s *Session) HandleTransaction(payload []byte) (*Transaction, error) {
	dec := transaction.NewDecoder(bytes.NewReader(payload), s.ShieldID)
	raw, err := dec.DecodeList()
	if err != nil {
		s.Logger.Warn().Err(err).Int("bytes", len(payload)).Msg("inventory: malformed transaction")
		return nil, err
	}

	tx := &Transaction{
		Player:          s.Player(),
		ReceivedAt:      s.now(),
		Payload:         append([]byte(nil), payload...),
		Raw:             raw,
		ActiveInventory: dec.ActiveInventory,
	}
	if tx.ActiveInventory != "" {
		s.Logger.Debug().Str("inventory", tx.ActiveInventory).Msg("inventory: active client-side window")
	}

	for i, r := range raw {
		a, err := inventory.Classify(r, s.Windows)
		if err != nil {
			tx.Err = fmt.Errorf("action %d: %w", i, err)
			s.Logger.Warn().Err(err).
				Int("action", i).
				Stringer("source", r.Source).
				Int32("window", r.Window).
				Uint32("slot", r.Slot).
				Msg("inventory: rejected action")
			break
		}
		tx.Actions = append(tx.Actions, a)
		s.Logger.Debug().Int("action", i).Msg(inventory.Describe(a))
	}

	s.dispatch(tx)
	return tx, tx.Err
}

// Submit runs HandleTransaction with the payload read from r.
func (s *Session) Submit(r io.Reader) (*Transaction, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read transaction: %w", err)
	}
	return s.HandleTransaction(payload)
}

func (s *Session) dispatch(tx *Transaction) {
	for _, m := range s.modules {
		m.HandleTransaction(tx)
	}
	for _, h := range s.handlers {
		h(s, tx)
	}
}

// Reset discards all window state and resets every module.
func (s *Session) Reset() {
	s.Windows = window.NewSet(s.Player())
	for _, m := range s.modules {
		m.Reset()
	}
}

// Close releases module resources.
func (s *Session) Close() error {
	var errs []error
	for _, m := range s.modules {
		if c, ok := m.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
