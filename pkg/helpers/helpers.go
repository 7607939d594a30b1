package helpers

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/go-mclib/server/internal/config"
	"github.com/go-mclib/server/pkg/actionlog"
	"github.com/go-mclib/server/pkg/session"
	"github.com/go-mclib/server/pkg/window"
)

// Flags holds common CLI flags for the inspector tools.
type Flags struct {
	ConfigPath  string
	Player      string
	Interactive bool
	PayloadHex  string
	Replay      bool
	Verbose     bool
}

// RegisterFlags registers the standard CLI flags on the default flag set.
func RegisterFlags(f *Flags) {
	flag.StringVar(&f.ConfigPath, "c", "", "config file (yaml)")
	flag.StringVar(&f.Player, "p", "", "player name (overrides config)")
	flag.BoolVar(&f.Interactive, "i", false, "open the interactive inspector")
	flag.StringVar(&f.PayloadHex, "x", "", "hex encoded action list to decode and classify")
	flag.BoolVar(&f.Replay, "replay", false, "decode and print every recorded transaction")
	flag.BoolVar(&f.Verbose, "v", false, "verbose logging")
}

// LoadConfig loads the config named by the flags, or the defaults when no
// file is given, and applies flag overrides.
func LoadConfig(f Flags) (config.Config, error) {
	cfg := config.Default()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(f.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}
	if f.Player != "" {
		cfg.Player = f.Player
	}
	if f.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// NewSession creates a session from cfg with the configured windows open and
// the action log registered when enabled. The returned recorder is nil when
// the action log is disabled.
func NewSession(cfg config.Config, logger zerolog.Logger) (*session.Session, *actionlog.Recorder, error) {
	s := session.New(cfg.Player, logger)
	s.ShieldID = cfg.ShieldID
	if err := OpenWindows(s.Windows, cfg.Windows); err != nil {
		return nil, nil, err
	}

	if !cfg.ActionLog.Enabled {
		return s, nil, nil
	}
	rec, err := actionlog.Open(cfg.ActionLog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open action log: %w", err)
	}
	s.Register(rec)
	return s, rec, nil
}

// OpenWindows opens one window per entry in windows.
func OpenWindows(set *window.Set, windows []config.WindowConfig) error {
	for i, wc := range windows {
		kind, err := window.ParseKind(wc.Kind)
		if err != nil {
			return fmt.Errorf("windows[%d]: %w", i, err)
		}
		if err := kind.CheckSize(wc.Size); err != nil {
			return fmt.Errorf("windows[%d]: %w", i, err)
		}
		if kind == window.KindCraftingGrid {
			set.SetCraftingGrid(wc.Size == window.SizeCraftingBig)
			continue
		}
		if set.Open(window.New(kind, wc.Size)) == window.IDNone {
			return fmt.Errorf("windows[%d]: no free window id", i)
		}
	}
	return nil
}
