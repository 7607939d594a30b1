package helpers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-mclib/server/internal/config"
	"github.com/go-mclib/server/internal/logging"
	"github.com/go-mclib/server/pkg/actionlog"
	"github.com/go-mclib/server/pkg/transaction"
	"github.com/go-mclib/server/pkg/tui"
)

const appName = "invspect"

// Run executes the mode selected by f. Payloads are read one hex line at a
// time from in unless -x, -replay or -i is given.
func Run(ctx context.Context, f Flags, in io.Reader, out, errOut io.Writer) (err error) {
	cfg, err := LoadConfig(f)
	if err != nil {
		return err
	}

	if f.Interactive {
		source := "interactive"
		if f.ConfigPath != "" {
			source = f.ConfigPath
		}
		return runInteractive(cfg, source, out)
	}

	logger := logging.New(cfg.Log, errOut, appName)
	s, rec, err := NewSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch {
	case f.Replay:
		if rec == nil {
			return errors.New("replay needs action_log.enabled in the config")
		}
		return replay(ctx, rec, cfg.ShieldID, out)

	case f.PayloadHex != "":
		printLines(out, NewInspector(s, rec, "flag", cfg.MaxLogLines).Submit(f.PayloadHex))
		return nil
	}

	inspector := NewInspector(s, rec, "stdin", cfg.MaxLogLines)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "/"):
			printLines(out, inspector.Command(line))
		default:
			printLines(out, inspector.Submit(line))
		}
	}
	return scanner.Err()
}

func runInteractive(cfg config.Config, source string, out io.Writer) error {
	// session is attached before the program runs
	inspector := &Inspector{source: source, maxLines: cfg.MaxLogLines}
	program, writer := tui.Start(inspector)
	defer writer.Close()

	logger := logging.New(cfg.Log, writer, appName)
	s, rec, err := NewSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	inspector.session = s
	inspector.recorder = rec

	logger.Info().Int("windows", len(s.Windows.Windows())).Msg("inspector ready")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	fmt.Fprintln(out, "bye")
	return nil
}

func replay(ctx context.Context, rec *actionlog.Recorder, shieldID int32, out io.Writer) error {
	if err := rec.Flush(ctx); err != nil {
		return err
	}
	return rec.Replay(ctx, shieldID, func(e actionlog.Entry, actions []transaction.RawAction, err error) error {
		fmt.Fprintln(out, DescribeEntry(e))
		if err != nil {
			fmt.Fprintf(out, "  payload does not decode: %v\n", err)
			return nil
		}
		if len(actions) == 0 {
			fmt.Fprintln(out, "  (no actions)")
		}
		for i, a := range actions {
			fmt.Fprintf(out, "  #%d %s\n", i, DescribeRaw(a))
		}
		return nil
	})
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
