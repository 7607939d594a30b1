package actionlog

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-mclib/server/pkg/item"
	"github.com/go-mclib/server/pkg/session"
	"github.com/go-mclib/server/pkg/transaction"
)

func openRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "logs", "actions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndReplayThroughSession(t *testing.T) {
	r := openRecorder(t)
	s := session.New("Steve", zerolog.Nop())
	s.Register(r)

	good := transaction.MarshalList([]transaction.RawAction{
		{Source: transaction.SourceWorld, Slot: transaction.SlotWorldDropItem, New: item.New(4, 0, 16)},
		{Source: transaction.SourceContainer, Window: 0, Slot: 3, Old: item.New(4, 0, 16), New: item.Air()},
	}, 0)
	bad := transaction.MarshalList([]transaction.RawAction{
		{Source: transaction.SourceCreative, Slot: 7},
	}, 0)

	if _, err := s.HandleTransaction(good); err != nil {
		t.Fatalf("handle good: %v", err)
	}
	if _, err := s.HandleTransaction(bad); err == nil {
		t.Fatalf("expected classification error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	entries, err := r.Entries(ctx, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Error == "" || entries[1].Error != "" {
		t.Errorf("entries should be newest first with the failure recorded: %+v", entries)
	}
	if entries[1].Player != "Steve" || entries[1].Actions != 2 {
		t.Errorf("entry = %+v, want Steve with 2 actions", entries[1])
	}

	var replayed [][]byte
	err = r.Replay(ctx, 0, func(e Entry, actions []transaction.RawAction, err error) error {
		if err != nil {
			t.Errorf("entry %d did not decode: %v", e.ID, err)
		}
		replayed = append(replayed, transaction.MarshalList(actions, 0))
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(replayed) != 2 || !bytes.Equal(replayed[0], good) || !bytes.Equal(replayed[1], bad) {
		t.Errorf("replayed payloads differ from recorded ones")
	}
}

func TestEntriesLimit(t *testing.T) {
	r := openRecorder(t)
	for i := 0; i < 5; i++ {
		if !r.Record(Entry{Player: "Alex", Actions: i, Payload: []byte{0x00}}) {
			t.Fatalf("record %d rejected", i)
		}
	}
	ctx := context.Background()
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	entries, err := r.Entries(ctx, 2)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Actions != 4 || entries[1].Actions != 3 {
		t.Errorf("entries = %+v, want the two newest", entries)
	}
	if entries[0].RecordedAt.IsZero() {
		t.Errorf("missing timestamp")
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	r := openRecorder(t)
	r.Record(Entry{Player: "Alex", Payload: []byte{0x00}})
	r.Record(Entry{Player: "Alex", Payload: []byte{0x00}})
	ctx := context.Background()
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	stop := errors.New("stop")
	calls := 0
	err := r.Replay(ctx, 0, func(Entry, []transaction.RawAction, error) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Replay = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestReplayEmptyAndCorruptPayloads(t *testing.T) {
	r := openRecorder(t)
	r.Record(Entry{Player: "Alex", Payload: []byte{0x00}})
	r.Record(Entry{Player: "Alex", Payload: []byte{0x03}})
	ctx := context.Background()
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	var errs []error
	var lists [][]transaction.RawAction
	err := r.Replay(ctx, 0, func(_ Entry, actions []transaction.RawAction, err error) error {
		lists = append(lists, actions)
		errs = append(errs, err)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(errs) != 2 {
		t.Fatalf("replayed %d entries, want 2", len(errs))
	}
	if errs[0] != nil || lists[0] == nil || len(lists[0]) != 0 {
		t.Errorf("empty list replayed as %#v, %v; want empty non-nil list", lists[0], errs[0])
	}
	if !errors.Is(errs[1], transaction.ErrMalformedStream) {
		t.Errorf("truncated payload error = %v, want ErrMalformedStream", errs[1])
	}
}

func TestClosedRecorder(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "actions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if r.Record(Entry{Player: "x"}) {
		t.Errorf("record after close accepted")
	}
	if err := r.Flush(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("flush after close = %v, want ErrClosed", err)
	}
	if _, err := r.Entries(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("entries after close = %v, want ErrClosed", err)
	}
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Errorf("expected error for empty path")
	}
}
