// Package app wires configuration, channels, the dispatcher, storage, the
// HTTP ingress, and the scheduler into a runnable daemon.
package app

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"

	"notifyd/internal/api"
	"notifyd/internal/channel"
	"notifyd/internal/config"
	"notifyd/internal/dispatch"
	"notifyd/internal/eventbus"
	"notifyd/internal/runtime/supervisor"
	"notifyd/internal/scheduler"
	"notifyd/internal/storage"
	"notifyd/pkg/logx"
)

type App struct {
	cfgPath string
	cfg     *config.Config

	log  logx.Logger
	logs *logx.Service

	bus      eventbus.Bus
	store    storage.Store
	notifier *dispatch.Notifier
	channels []builtChannel

	sched *scheduler.Service
	api   *api.Server

	sup *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Parse(cfgPath)
	if err != nil {
		return nil, err
	}

	// The escalation sender is armed after channels are built; channel
	// construction itself wants a logger.
	logSvc, log := logx.New(mapLoggingConfig(cfg.Logging), nil)
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	notifier := dispatch.New(
		dispatch.WithLogger(log.With(logx.String("comp", "dispatch"))),
		dispatch.WithBus(bus),
	)

	built, err := buildChannels(cfg, notifier, log)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	notifier.SetFallbackOrder(cfg.FallbackOrder)

	if cfg.AlertChannel != "" {
		ch := findChannel(built, cfg.AlertChannel)
		if ch == nil {
			logSvc.Close()
			return nil, fmt.Errorf("alert_channel: no channel named %q", cfg.AlertChannel)
		}
		logSvc.SetSender(alertSender{ch: ch})
	}

	var store storage.Store
	if cfg.Storage != nil {
		sc, err := mapStorageConfig(*cfg.Storage)
		if err != nil {
			logSvc.Close()
			return nil, err
		}
		store, err = storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			logSvc.Close()
			return nil, err
		}
		if store != nil {
			log.Info("delivery log enabled", logx.String("driver", sc.Driver))
		}
	}

	var sched *scheduler.Service
	if len(cfg.Schedules) > 0 {
		entries := make([]scheduler.Entry, 0, len(cfg.Schedules))
		for _, sc := range cfg.Schedules {
			entries = append(entries, scheduler.Entry{
				Name:       sc.Name,
				Spec:       sc.Schedule,
				Message:    sc.Message,
				Recipients: mapRecipients(sc.Recipients),
			})
		}
		sched = scheduler.New(entries, notifier, log.With(logx.String("comp", "scheduler")))
	}

	var apiSrv *api.Server
	if cfg.HTTP != nil && cfg.HTTP.Enabled {
		apiSrv = api.New(api.Config{
			Listen: cfg.HTTP.Listen,
			APIKey: cfg.HTTP.APIKey,
		}, notifier, store, log.With(logx.String("comp", "api")))
	}

	return &App{
		cfgPath:  cfgPath,
		cfg:      cfg,
		log:      log,
		logs:     logSvc,
		bus:      bus,
		store:    store,
		notifier: notifier,
		channels: built,
		sched:    sched,
		api:      apiSrv,
	}, nil
}

// Notifier exposes the dispatcher for one-shot sends.
func (a *App) Notifier() *dispatch.Notifier { return a.notifier }

// Done is closed when the app supervisor context is canceled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	if a.sched != nil {
		if err := a.sched.Start(a.sup.Context()); err != nil {
			return err
		}
	}
	if a.store != nil {
		a.sup.Go0("storage.recorder", func(ctx context.Context) {
			storage.RunRecorder(ctx, a.bus, a.store, a.log.With(logx.String("comp", "storage")))
		})
	}
	if a.api != nil {
		a.sup.Go("api", a.api.Run)
	}
	if a.cfg.WatchConfig {
		a.sup.GoRestart("config.watch", func(ctx context.Context) error {
			return config.Watch(ctx, a.cfgPath, a.log.With(logx.String("comp", "config")), a.onReload)
		})
	}

	a.log.Info("started",
		logx.Int("channels", len(a.channels)),
		logx.Bool("fallback", len(a.cfg.FallbackOrder) > 0))

	// No-op outside a systemd unit with Type=notify.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	return nil
}

// onReload applies the logging section of a changed config file. Channels,
// fallback order, schedules, and listeners are setup-time only.
func (a *App) onReload(cfg *config.Config) {
	a.logs.Apply(mapLoggingConfig(cfg.Logging))
	a.log.Info("logging config reloaded", logx.String("level", cfg.Logging.Level))
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.sched != nil {
		a.sched.Stop(ctx)
	}

	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	a.logs.Close()
	return err
}

func findChannel(built []builtChannel, name string) channel.Channel {
	for _, b := range built {
		if b.name == name {
			return b.ch
		}
	}
	return nil
}

// alertSender feeds the logging escalation sink through a single named
// channel using that channel's default recipients.
type alertSender struct {
	ch channel.Channel
}

func (s alertSender) SendAlert(ctx context.Context, text string) error {
	return s.ch.Send(ctx, text, s.ch.DefaultRecipients())
}

func mapLoggingConfig(lc config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   lc.Level,
		Console: lc.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: lc.File.Enabled,
			Path:    lc.File.Path,
		},
		Escalate: logx.EscalateConfig{
			Enabled:    lc.Escalate.Enabled,
			MinLevel:   lc.Escalate.MinLevel,
			RatePerSec: lc.Escalate.RatePerSec,
		},
	}
}

func mapStorageConfig(sc config.StorageConfig) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, 0)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      sc.Driver,
		Path:        sc.Path,
		BusyTimeout: busy,
	}, nil
}
