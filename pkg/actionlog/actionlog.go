package actionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/go-mclib/server/pkg/session"
	"github.com/go-mclib/server/pkg/transaction"
)

// ModuleName is the session module key of a Recorder.
const ModuleName = "actionlog"

// ErrClosed is returned by operations on a closed Recorder.
var ErrClosed = errors.New("actionlog: closed")

// Entry is one recorded transaction.
type Entry struct {
	ID         int64
	Player     string
	RecordedAt time.Time
	Actions    int
	// Error is the classification failure, or "" when every action classified.
	Error string
	// Payload is the uncompressed action list as received.
	Payload []byte
}

type req struct {
	entry Entry
	done  chan struct{} // set for flush barriers
}

// Recorder stores transaction payloads in SQLite. Writes are queued and
// applied by a single writer goroutine so recording never blocks a session.
type Recorder struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once
	mu   sync.RWMutex // guards sends on ch against Close

	closed  atomic.Bool
	dropped atomic.Uint64

	logger zerolog.Logger
}

// Open opens or creates the action log at path.
func Open(path string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("actionlog: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, err
	}

	r := &Recorder{
		db:     db,
		enc:    enc,
		dec:    dec,
		ch:     make(chan req, 4096),
		logger: zerolog.Nop(),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
	return r, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			action_count INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS transactions_player ON transactions(player, id);",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("actionlog: init schema: %w", err)
		}
	}
	return nil
}

// Name implements session.Module.
func (r *Recorder) Name() string { return ModuleName }

// Init implements session.Module.
func (r *Recorder) Init(s *session.Session) {
	r.logger = s.Logger.With().Str("module", ModuleName).Logger()
}

// HandleTransaction implements session.Module.
func (r *Recorder) HandleTransaction(tx *session.Transaction) {
	e := Entry{
		Player:     tx.Player,
		RecordedAt: tx.ReceivedAt,
		Actions:    len(tx.Raw),
		Payload:    tx.Payload,
	}
	if tx.Err != nil {
		e.Error = tx.Err.Error()
	}
	if !r.Record(e) {
		r.logger.Warn().Uint64("dropped", r.dropped.Load()).Msg("actionlog: queue full, transaction dropped")
	}
}

// Reset implements session.Module. Recorded history survives resets.
func (r *Recorder) Reset() {}

// Record queues e for writing. It reports false if the log is closed or the
// queue is full.
func (r *Recorder) Record(e Entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed.Load() {
		return false
	}
	select {
	case r.ch <- req{entry: e}:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Flush waits until every entry queued before the call has been written.
func (r *Recorder) Flush(ctx context.Context) error {
	done := make(chan struct{})
	r.mu.RLock()
	if r.closed.Load() {
		r.mu.RUnlock()
		return ErrClosed
	}
	select {
	case r.ch <- req{done: done}:
		r.mu.RUnlock()
	case <-ctx.Done():
		r.mu.RUnlock()
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns the number of entries discarded because the queue was full.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Close drains the queue and closes the database.
func (r *Recorder) Close() error {
	var err error
	r.once.Do(func() {
		r.mu.Lock()
		r.closed.Store(true)
		close(r.ch)
		r.mu.Unlock()

		r.wg.Wait()
		r.dec.Close()
		err = errors.Join(r.enc.Close(), r.db.Close())
	})
	return err
}

func (r *Recorder) loop() {
	for q := range r.ch {
		if q.done != nil {
			close(q.done)
			continue
		}
		if err := r.insert(q.entry); err != nil {
			r.logger.Error().Err(err).Str("player", q.entry.Player).Msg("actionlog: write failed")
		}
	}
}

func (r *Recorder) insert(e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	blob := r.enc.EncodeAll(e.Payload, nil)
	_, err := r.db.Exec(
		"INSERT INTO transactions(player, recorded_at, action_count, error, payload) VALUES(?, ?, ?, ?, ?)",
		e.Player, e.RecordedAt.UTC().Format(time.RFC3339Nano), e.Actions, e.Error, blob,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Entries returns up to limit entries, newest first. A limit of 0 or less
// returns every entry.
func (r *Recorder) Entries(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx, "SELECT id, player, recorded_at, action_count, error, payload FROM transactions ORDER BY id DESC LIMIT ?", limit)
}

// Replay decodes every recorded payload, oldest first, and calls fn with the
// entry, its actions and the decode error of a payload that no longer decodes.
// Replay stops at the first error returned by fn.
func (r *Recorder) Replay(ctx context.Context, shieldID int32, fn func(Entry, []transaction.RawAction, error) error) error {
	entries, err := r.query(ctx, "SELECT id, player, recorded_at, action_count, error, payload FROM transactions ORDER BY id ASC LIMIT ?", -1)
	if err != nil {
		return err
	}
	for _, e := range entries {
		actions, decodeErr := transaction.Unmarshal(e.Payload, shieldID)
		if decodeErr != nil {
			r.logger.Warn().Err(decodeErr).Int64("id", e.ID).Msg("actionlog: stored payload does not decode")
		}
		if err := fn(e, actions, decodeErr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("actionlog: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			recorded string
			blob     []byte
		)
		if err := rows.Scan(&e.ID, &e.Player, &recorded, &e.Actions, &e.Error, &blob); err != nil {
			return nil, fmt.Errorf("actionlog: scan: %w", err)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded); err != nil {
			return nil, fmt.Errorf("actionlog: entry %d: bad timestamp: %w", e.ID, err)
		}
		if e.Payload, err = r.dec.DecodeAll(blob, nil); err != nil {
			return nil, fmt.Errorf("actionlog: entry %d: decompress: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
