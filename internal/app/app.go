package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/config"
	"github.com/fruithappens/Coffeecue-sub002/internal/fallback"
	"github.com/fruithappens/Coffeecue-sub002/internal/gateway"
	"github.com/fruithappens/Coffeecue-sub002/internal/prefs"
	"github.com/fruithappens/Coffeecue-sub002/internal/scheduler"
	"github.com/fruithappens/Coffeecue-sub002/internal/storage"
	"github.com/fruithappens/Coffeecue-sub002/internal/store"
	"github.com/fruithappens/Coffeecue-sub002/internal/ui"
)

// demoStationCount is how many stations the offline demo pretends to run.
const demoStationCount = 3

// Options configure the Coffeecue station application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/coffeecue/prefs.toml
	StationID  int    // overrides the configured station when > 0
	PollEvery  int    // seconds; zero uses the configured interval
	Offline    bool
}

// Run boots the station TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	userPrefs := prefs.Load(opts.PrefsPath)
	// Station precedence: explicit flag, then the station last used on this
	// terminal, then the configured default.
	if userPrefs.LastStation > 0 {
		cfg.StationID = userPrefs.LastStation
	}
	if opts.StationID > 0 {
		cfg.StationID = opts.StationID
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
		if cfg.PollSeconds < config.MinPollSeconds {
			cfg.PollSeconds = config.MinPollSeconds
		}
	}
	if opts.Offline {
		cfg.OfflineMode = true
	}

	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Info().Int("station", cfg.StationID).Str("server", cfg.ServerBind).
		Bool("offline", cfg.OfflineMode).Msg("coffeecue station starting")

	st, err := storage.Open(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("open state dir: %w", err)
	}

	mode := &fallback.Mode{}
	fb := fallback.NewProvider(mode, st, log)
	if cfg.OfflineMode {
		mode.SetOperator(true)
		fb.SeedSampleData(demoStationCount)
	}

	gw, err := gateway.NewClient(cfg.ServerBind, tokenSource(cfg.TokenPath), mode, log)
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	if !cfg.OfflineMode {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if !gw.CheckConnection(probeCtx) {
			log.Warn().Str("server", cfg.ServerBind).
				Msg("server unreachable at startup, serving cached data")
		}
		cancel()
	}

	s := store.New(store.Options{
		Gateway:      gw,
		Fallback:     fb,
		Storage:      st,
		StationID:    cfg.StationID,
		BaseWaitMins: cfg.BaseWaitMins,
		Log:          log,
	})

	interval := time.Duration(cfg.PollSeconds) * time.Second
	sched := scheduler.New(s, interval, log)
	s.SetRefreshRequester(sched.Wake)
	go sched.Run(ctx)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     s,
		Scheduler: sched,
		Config:    cfg,
		Log:       log,
		PrefsPath: opts.PrefsPath,
		ThemeName: userPrefs.Theme,
	})
}

// tokenSource reads the bearer token from disk on every request so a token
// rotated by the counter is picked up without a restart.
func tokenSource(path string) gateway.TokenSource {
	return gateway.TokenFunc(func() string {
		if path == "" {
			return ""
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(raw))
	})
}

// openLogger writes structured logs to a file under the state dir. The TUI
// owns the terminal, so nothing may log to stdout.
func openLogger(cfg config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	log := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }, nil
}
