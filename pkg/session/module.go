package session

// Module is a pluggable consumer of a player's inventory transactions.
type Module interface {
	// Name returns a unique key for this module (e.g. "actionlog").
	Name() string
	// Init is called once when the module is registered on a session.
	// Store the *Session reference for later use.
	Init(s *Session)
	// HandleTransaction is called for every decoded transaction, including
	// ones whose classification failed.
	HandleTransaction(tx *Transaction)
	// Reset is called when the session's window state is discarded.
	Reset()
}

// Closer is optionally implemented by modules holding resources that must be
// released when the session ends.
type Closer interface {
	Close() error
}

// Handler is a lightweight transaction callback for one-off matching.
type Handler func(s *Session, tx *Transaction)
