package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/moonpalace/concierge/internal/config"
	"github.com/moonpalace/concierge/internal/events"
	"github.com/moonpalace/concierge/internal/hotelapi"
	"github.com/moonpalace/concierge/internal/sessionstore"
	"github.com/moonpalace/concierge/internal/suggest"
	"github.com/moonpalace/concierge/internal/sysutil"
	"github.com/moonpalace/concierge/internal/widget"
)

var (
	version = "dev"
	commit  = "unknown"
)

// app carries what every subcommand needs once flags and the environment
// have been read.
type app struct {
	envFile string
	cfg     config.Config
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "concierge",
		Short:         "Moon Palace hotel chat widget",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.AddCommand(newServeCmd(a), newChatCmd(a))
	return root
}

// load reads the dotenv file (a missing file is fine), then the
// configuration, and sets up logging on the command's error stream.
func (a *app) load(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	a.log = sysutil.ConfigureLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty)
	return nil
}

// deps are the shared collaborators of every widget in the process.
type deps struct {
	backend   sessionstore.Backend
	client    *hotelapi.Client
	publisher events.Publisher
	close     func()
}

func (a *app) openDeps(ctx context.Context) (*deps, error) {
	backend, closeStore, err := sessionstore.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	pub, err := events.Open(a.cfg.Events)
	if err != nil {
		a.log.Warn().Err(err).Msg("event publisher unavailable; events disabled")
		pub = events.Noop{}
	}
	return &deps{
		backend:   backend,
		client:    hotelapi.New(a.cfg.HotelAPI.BaseURL, a.cfg.HotelAPI.Timeout),
		publisher: pub,
		close: func() {
			if err := pub.Close(); err != nil {
				a.log.Warn().Err(err).Msg("close event publisher")
			}
			if err := closeStore(); err != nil {
				a.log.Warn().Err(err).Msg("close session store")
			}
		},
	}, nil
}

// factory builds the widget of one browser profile.
func (a *app) factory(d *deps) widget.Factory {
	lookup := suggest.New(d.client, a.cfg.Widget.SuggestionLimit)
	return func(ctx context.Context, profileID string) (*widget.Widget, error) {
		lg := a.log.With().Str("profile_id", profileID).Logger()
		key := sessionstore.Key(a.cfg.Store.SessionKey, profileID)
		return widget.New(ctx, widget.Options{
			Store:         sessionstore.New(d.backend, key, lg),
			Assistant:     d.client,
			Suggester:     lookup,
			Publisher:     d.publisher,
			Logger:        lg,
			ProfileID:     profileID,
			FeedbackDelay: a.cfg.Widget.FeedbackResetDelay,
		}), nil
	}
}

const shutdownTimeout = 10 * time.Second
