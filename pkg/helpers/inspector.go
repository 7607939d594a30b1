package helpers

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-mclib/server/pkg/actionlog"
	"github.com/go-mclib/server/pkg/inventory"
	"github.com/go-mclib/server/pkg/item"
	"github.com/go-mclib/server/pkg/session"
	"github.com/go-mclib/server/pkg/transaction"
	"github.com/go-mclib/server/pkg/window"
)

const commandHelp = `commands:
  /windows                              list open windows and their contents
  /open <kind> [size]                   open a window (container, anvil, enchant, trading, beacon)
  /close <id>                           close a window
  /set <id|grid> <slot> <netID> <count> put an item into a window slot
  /grid small|big                       switch the crafting grid size
  /log [n]                              show the n newest recorded transactions
  /reset                                close every window`

// Inspector feeds hex payloads and slash commands to a session. It
// implements tui.Inspector.
type Inspector struct {
	mu       sync.Mutex
	session  *session.Session
	recorder *actionlog.Recorder
	source   string
	maxLines int
}

// NewInspector wraps s. recorder may be nil.
func NewInspector(s *session.Session, recorder *actionlog.Recorder, source string, maxLines int) *Inspector {
	return &Inspector{session: s, recorder: recorder, source: source, maxLines: maxLines}
}

func (in *Inspector) PlayerName() string { return in.session.Player() }
func (in *Inspector) Source() string     { return in.source }
func (in *Inspector) MaxLogLines() int   { return in.maxLines }

// Submit decodes a hex action list and classifies it.
func (in *Inspector) Submit(payloadHex string) []string {
	payload, err := hex.DecodeString(strings.Join(strings.Fields(payloadHex), ""))
	if err != nil {
		return []string{fmt.Sprintf("error: invalid hex: %v", err)}
	}

	in.mu.Lock()
	tx, err := in.session.HandleTransaction(payload)
	in.mu.Unlock()
	if tx == nil {
		return []string{fmt.Sprintf("error: %v", err)}
	}
	return DescribeTransaction(tx)
}

// DescribeTransaction renders tx one line per action.
func DescribeTransaction(tx *session.Transaction) []string {
	lines := make([]string, 0, len(tx.Raw)+1)
	if tx.ActiveInventory != "" {
		lines = append(lines, "active inventory: "+tx.ActiveInventory)
	}
	for i, raw := range tx.Raw {
		if i < len(tx.Actions) {
			lines = append(lines, fmt.Sprintf("#%d %s", i, inventory.Describe(tx.Actions[i])))
			continue
		}
		lines = append(lines, fmt.Sprintf("#%d %s", i, DescribeRaw(raw)))
	}
	if tx.Err != nil {
		lines = append(lines, fmt.Sprintf("error: %v", tx.Err))
	}
	return lines
}

// DescribeRaw renders an unclassified action.
func DescribeRaw(a transaction.RawAction) string {
	var where string
	switch a.Source {
	case transaction.SourceContainer:
		where = fmt.Sprintf(" window=%d", a.Window)
	case transaction.SourceWorld:
		where = fmt.Sprintf(" count=%d", a.WorldCount)
	case transaction.SourceExtended:
		where = " " + a.Extended().String()
	}
	return fmt.Sprintf("raw %s%s slot=%d %s -> %s", a.Source, where, a.Slot, item.String(a.Old), item.String(a.New))
}

// Command runs a slash command.
func (in *Inspector) Command(cmd string) []string {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(cmd), "/"))
	if len(fields) == 0 {
		return []string{commandHelp}
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	args := fields[1:]
	switch fields[0] {
	case "help":
		return []string{commandHelp}
	case "windows":
		return in.listWindows()
	case "open":
		return in.open(args)
	case "close":
		return in.close(args)
	case "set":
		return in.set(args)
	case "grid":
		if len(args) != 1 || (args[0] != "small" && args[0] != "big") {
			return []string{"usage: /grid small|big"}
		}
		in.session.Windows.SetCraftingGrid(args[0] == "big")
		return []string{fmt.Sprintf("crafting grid: %d slots", in.session.Windows.CraftingGrid().Size())}
	case "log":
		return in.log(args)
	case "reset":
		in.session.Reset()
		return []string{"windows reset"}
	}
	return []string{fmt.Sprintf("unknown command %q, try /help", fields[0])}
}

func (in *Inspector) listWindows() []string {
	set := in.session.Windows
	windows := append(set.Windows(), set.CraftingGrid())
	lines := make([]string, 0, len(windows))
	for _, w := range windows {
		var filled []string
		for i, s := range w.Contents() {
			if !item.IsAir(s) {
				filled = append(filled, fmt.Sprintf("%d=%s", i, item.String(s)))
			}
		}
		lines = append(lines, fmt.Sprintf("%s size=%d [%s]", w, w.Size(), strings.Join(filled, ", ")))
	}
	return lines
}

func (in *Inspector) open(args []string) []string {
	if len(args) < 1 || len(args) > 2 {
		return []string{"usage: /open <kind> [size]"}
	}
	kind, err := window.ParseKind(args[0])
	if err != nil {
		return []string{"error: " + err.Error()}
	}
	size := 0
	if len(args) == 2 {
		if size, err = strconv.Atoi(args[1]); err != nil {
			return []string{"error: invalid size " + args[1]}
		}
	}
	if err := kind.CheckSize(size); err != nil {
		return []string{"error: " + err.Error()}
	}
	id := in.session.Windows.Open(window.New(kind, size))
	if id == window.IDNone {
		return []string{"error: no free window id"}
	}
	return []string{fmt.Sprintf("opened %s as window %d", kind, id)}
}

func (in *Inspector) close(args []string) []string {
	if len(args) != 1 {
		return []string{"usage: /close <id>"}
	}
	id, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return []string{"error: invalid window id " + args[0]}
	}
	if !in.session.Windows.Close(int32(id)) {
		return []string{fmt.Sprintf("window %d cannot be closed", id)}
	}
	return []string{fmt.Sprintf("closed window %d", id)}
}

func (in *Inspector) set(args []string) []string {
	if len(args) != 4 {
		return []string{"usage: /set <id|grid> <slot> <netID> <count>"}
	}
	var w *window.Window
	if args[0] == "grid" {
		w = in.session.Windows.CraftingGrid()
	} else {
		id, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return []string{"error: invalid window id " + args[0]}
		}
		var ok bool
		if w, ok = in.session.Windows.Window(int32(id)); !ok {
			return []string{fmt.Sprintf("error: window %d not open", id)}
		}
	}
	slot, err1 := strconv.Atoi(args[1])
	netID, err2 := strconv.ParseInt(args[2], 10, 32)
	count, err3 := strconv.ParseUint(args[3], 10, 16)
	if err1 != nil || err2 != nil || err3 != nil {
		return []string{"error: slot, netID and count must be numbers"}
	}
	s := item.New(int32(netID), 0, uint16(count))
	if err := w.SetSlot(slot, s); err != nil {
		return []string{"error: " + err.Error()}
	}
	return []string{fmt.Sprintf("%s[%d] = %s", w, slot, item.String(s))}
}

func (in *Inspector) log(args []string) []string {
	if in.recorder == nil {
		return []string{"action log disabled"}
	}
	limit := 10
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return []string{"error: invalid count " + args[0]}
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := in.recorder.Flush(ctx); err != nil {
		return []string{"error: " + err.Error()}
	}
	entries, err := in.recorder.Entries(ctx, limit)
	if err != nil {
		return []string{"error: " + err.Error()}
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, DescribeEntry(e))
	}
	return lines
}

// DescribeEntry renders a recorded transaction on one line.
func DescribeEntry(e actionlog.Entry) string {
	status := "ok"
	if e.Error != "" {
		status = e.Error
	}
	return fmt.Sprintf("[%d] %s %s actions=%d %s %x",
		e.ID, e.RecordedAt.Format(time.RFC3339), e.Player, e.Actions, status, e.Payload)
}
