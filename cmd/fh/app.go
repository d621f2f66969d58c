package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/advisor"
	"github.com/farmhand/farmhand/internal/config"
	"github.com/farmhand/farmhand/internal/db"
	"github.com/farmhand/farmhand/internal/kv"
	"github.com/farmhand/farmhand/internal/notify"
	"github.com/farmhand/farmhand/internal/notify/discord"
	"github.com/farmhand/farmhand/internal/notify/slack"
	"github.com/farmhand/farmhand/internal/remote"
	"github.com/farmhand/farmhand/internal/remote/firestore"
	"github.com/farmhand/farmhand/internal/remote/redisdoc"
	"github.com/farmhand/farmhand/internal/remote/sqldoc"
	"github.com/farmhand/farmhand/internal/store"
)

// loadConfig reads the dotenv file, the config file and the secret overlay.
func loadConfig(g *globals) (*config.Config, error) {
	if err := config.LoadDotEnv(g.envPath); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// openLocal opens the on-device key-value storage.
func openLocal(cfg *config.Config) (*kv.Store, func(), error) {
	gdb, err := db.OpenSQLite(cfg.Local.Path)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if err := db.AutoMigrate(gdb); err != nil {
		closeDB()
		return nil, nil, err
	}
	return kv.New(gdb), closeDB, nil
}

// openRemote builds the configured remote document store, or nil for none.
// The returned func closes the remote and any connection it was built on.
func openRemote(ctx context.Context, cfg *config.Config, log *zap.Logger) (remote.DocumentStore, func(), error) {
	switch cfg.Remote.Kind {
	case config.RemoteFirestore:
		rs, err := firestore.New(ctx, firestore.Options{
			ProjectID:       cfg.Remote.Firestore.ProjectID,
			CredentialsFile: cfg.Remote.Firestore.CredentialsFile,
			Logger:          log,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, closeWith(rs, log), nil
	case config.RemoteMySQL:
		gdb, err := db.Connect(mysqlOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		rs := sqldoc.New(gdb, sqldoc.Options{
			PollInterval: time.Duration(cfg.Remote.MySQL.PollIntervalSec) * time.Second,
			Logger:       log,
		})
		closeRemote := closeWith(rs, log)
		return rs, func() {
			closeRemote()
			if sqlDB, err := gdb.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil
	case config.RemoteRedis:
		rs := redisdoc.New(redisdoc.Options{
			Addr:     cfg.Remote.Redis.Addr,
			Password: cfg.Remote.Redis.Password,
			DB:       cfg.Remote.Redis.DB,
			Prefix:   cfg.Remote.Redis.Prefix,
			Logger:   log,
		})
		return rs, closeWith(rs, log), nil
	}
	return nil, func() {}, nil
}

func closeWith(rs remote.DocumentStore, log *zap.Logger) func() {
	return func() {
		if err := rs.Close(); err != nil {
			log.Warn("close remote backend", zap.String("backend", rs.Name()), zap.Error(err))
		}
	}
}

func mysqlOptions(cfg *config.Config) db.MySQLOptions {
	return db.MySQLOptions{
		Host:     cfg.Remote.MySQL.Host,
		Port:     cfg.Remote.MySQL.Port,
		User:     cfg.Remote.MySQL.User,
		Password: cfg.Remote.MySQL.Password,
		Database: cfg.Remote.MySQL.Database,
	}
}

// farm bundles what a command needs to work with the farm data.
type farm struct {
	cfg   *config.Config
	store *store.Store
	local *kv.Store

	closeRemote func()
	closeLocal  func()
}

// openFarm opens local storage and the store. A remote that cannot even be
// constructed is logged and treated like an unreachable one. A remote the
// store did not bind to is closed right away.
func openFarm(ctx context.Context, g *globals) (*farm, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	local, closeLocal, err := openLocal(cfg)
	if err != nil {
		return nil, err
	}

	rs, closeRemote, err := openRemote(ctx, cfg, g.log)
	if err != nil {
		g.log.Warn("remote backend unavailable", zap.String("kind", cfg.Remote.Kind), zap.Error(err))
		rs, closeRemote = nil, func() {}
	}

	st, err := store.Open(ctx, store.Options{
		Remote:   rs,
		Local:    local,
		Debounce: time.Duration(cfg.Local.DebounceMS) * time.Millisecond,
		Logger:   g.log,
	})
	if err != nil {
		closeRemote()
		closeLocal()
		return nil, err
	}
	if st.Mode() == store.ModeLocal {
		closeRemote()
		closeRemote = func() {}
	}
	return &farm{cfg: cfg, store: st, local: local, closeRemote: closeRemote, closeLocal: closeLocal}, nil
}

// Close flushes the store, then releases the remote and local storage.
func (f *farm) Close() error {
	err := f.store.Close()
	f.closeRemote()
	f.closeLocal()
	return err
}

// newAdvisor returns the Gemini advisor, or the offline mock without a key.
func newAdvisor(ctx context.Context, cfg *config.Config, log *zap.Logger) advisor.Advisor {
	if cfg.Advisor.APIKey == "" {
		log.Info("no GEMINI_API_KEY set, using offline advisor")
		return advisor.Mock{}
	}
	adv, err := advisor.NewGemini(ctx, cfg.Advisor.APIKey, cfg.Advisor.Model, log)
	if err != nil {
		log.Warn("gemini advisor unavailable, using offline advisor", zap.Error(err))
		return advisor.Mock{}
	}
	return adv
}

// newNotifier fans out to every configured chat channel.
func newNotifier(cfg *config.Config, log *zap.Logger) *notify.Multi {
	var senders []notify.Sender
	if cfg.Notify.Slack.Enabled() {
		s, err := slack.New(slack.Opts{BotToken: cfg.Notify.Slack.Token, ChannelID: cfg.Notify.Slack.Channel})
		if err != nil {
			log.Warn("slack notifier disabled", zap.Error(err))
		} else {
			senders = append(senders, s)
		}
	}
	if cfg.Notify.Discord.Enabled() {
		d, err := discord.New(discord.Opts{BotToken: cfg.Notify.Discord.Token, ChannelID: cfg.Notify.Discord.Channel})
		if err != nil {
			log.Warn("discord notifier disabled", zap.Error(err))
		} else {
			senders = append(senders, d)
		}
	}
	return notify.NewMulti(log, senders...)
}

func printMode(f *farm) string {
	if f.store.CloudConnected() {
		return fmt.Sprintf("cloud (%s)", f.store.Backend())
	}
	return "local"
}
