package main

import (
	"context"
	"net"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/ingest"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/resilience"
	"github.com/sells-group/jobtrack/internal/secrets"
	"github.com/sells-group/jobtrack/internal/store"
	"github.com/sells-group/jobtrack/pkg/calendarapi"
	"github.com/sells-group/jobtrack/pkg/imapmail"
	"github.com/sells-group/jobtrack/pkg/mailapi"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "jobtrack.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore initializes and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// engineEnv holds the engine and the resources it owns.
type engineEnv struct {
	Store  store.Store
	Engine *ingest.Engine
}

func (e *engineEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// initEngine opens the store and builds the providers that are configured.
// A provider left unconfigured is nil; syncs against it fail.
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	cal := initCalendar()
	mail, err := initMail()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &engineEnv{
		Store:  st,
		Engine: ingest.New(st, cal, mail, cfg.Sync),
	}, nil
}

func retryConfig() resilience.RetryConfig {
	return resilience.FromSettings(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
}

func initCalendar() provider.CalendarProvider {
	if cfg.Calendar.BaseURL == "" {
		zap.L().Debug("calendar.base_url not set, calendar provider disabled")
		return nil
	}
	return calendarapi.NewClient(cfg.Calendar.Token,
		calendarapi.WithBaseURL(cfg.Calendar.BaseURL),
		calendarapi.WithRateLimit(cfg.Calendar.Rate),
		calendarapi.WithRetry(retryConfig()),
		calendarapi.WithMaxItems(cfg.Sync.MaxPageSize),
		calendarapi.WithTokenFunc(secrets.Lookup(cfg.Calendar.KeyringAccount, cfg.Calendar.Token)),
	)
}

func initMail() (provider.MailProvider, error) {
	switch cfg.Mail.Provider {
	case "imap":
		if cfg.Mail.IMAPAddr == "" {
			zap.L().Debug("mail.imap_addr not set, mail provider disabled")
			return nil, nil
		}
		account := cfg.Mail.KeyringAccount
		if account == "" {
			host, _, err := net.SplitHostPort(cfg.Mail.IMAPAddr)
			if err != nil {
				host = cfg.Mail.IMAPAddr
			}
			account = secrets.IMAPAccount(cfg.Mail.IMAPUsername, host)
		}
		c, err := imapmail.New(imapmail.Config{
			Addr:     cfg.Mail.IMAPAddr,
			Username: cfg.Mail.IMAPUsername,
			Mailbox:  cfg.Mail.Mailbox,
		}, secrets.Lookup(account, cfg.Mail.IMAPPassword))
		if err != nil {
			return nil, eris.Wrap(err, "init imap provider")
		}
		return c, nil
	default:
		if cfg.Mail.BaseURL == "" {
			zap.L().Debug("mail.base_url not set, mail provider disabled")
			return nil, nil
		}
		return mailapi.NewClient(cfg.Mail.Token,
			mailapi.WithBaseURL(cfg.Mail.BaseURL),
			mailapi.WithRateLimit(cfg.Mail.Rate),
			mailapi.WithRetry(retryConfig()),
			mailapi.WithMaxItems(cfg.Sync.MaxPageSize),
			mailapi.WithTokenFunc(secrets.Lookup(cfg.Mail.KeyringAccount, cfg.Mail.Token)),
		), nil
	}
}
