// Package imapmail reads a mailbox over IMAP and normalizes its messages for
// the sync pipeline.
package imapmail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
)

const (
	defaultMailbox  = "INBOX"
	defaultMaxFetch = 1000
	maxBodyBytes    = 5 << 20
)

// PasswordFunc returns the IMAP password for a user.
type PasswordFunc func(ctx context.Context, userID string) (string, error)

// Config holds connection settings.
type Config struct {
	Addr     string // host:port, TLS
	Username string
	Mailbox  string
	MaxFetch int
	TLS      *tls.Config
}

// Client implements provider.MailProvider over IMAP. Messages are fetched
// with BODY.PEEK[] so the mailbox's \Seen flags are left alone.
type Client struct {
	cfg      Config
	password PasswordFunc
}

var _ provider.MailProvider = (*Client)(nil)

// New creates an IMAP mail provider.
func New(cfg Config, password PasswordFunc) (*Client, error) {
	if cfg.Addr == "" {
		return nil, eris.New("imap: addr is required")
	}
	if cfg.Username == "" {
		return nil, eris.New("imap: username is required")
	}
	if password == nil {
		return nil, eris.New("imap: password source is required")
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = defaultMailbox
	}
	if cfg.MaxFetch <= 0 {
		cfg.MaxFetch = defaultMaxFetch
	}
	if cfg.TLS == nil {
		cfg.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &Client{cfg: cfg, password: password}, nil
}

// ListMessages returns the messages received in r, oldest first. A rejected
// login maps to provider.ErrAuthExpired.
func (c *Client) ListMessages(ctx context.Context, userID string, r model.DateRange) ([]model.MailItem, error) {
	if err := r.Validate(); err != nil {
		return nil, eris.Wrap(err, "imap: list messages")
	}
	password, err := c.password(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "imap: resolve password")
	}

	conn, err := imapclient.DialTLS(c.cfg.Addr, &imapclient.Options{TLSConfig: c.cfg.TLS})
	if err != nil {
		return nil, eris.Wrapf(err, "imap: dial %s", c.cfg.Addr)
	}
	defer conn.Close() //nolint:errcheck

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.Login(c.cfg.Username, password).Wait(); err != nil {
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return nil, eris.Wrapf(provider.ErrAuthExpired, "imap: login %s", c.cfg.Username)
		}
		return nil, eris.Wrap(err, "imap: login")
	}
	defer func() {
		if err := conn.Logout().Wait(); err != nil {
			zap.L().Debug("imap: logout", zap.Error(err))
		}
	}()

	sel, err := conn.Select(c.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, eris.Wrapf(err, "imap: select %s", c.cfg.Mailbox)
	}

	// SINCE and BEFORE match on dates only; the exact window is applied below.
	search, err := conn.UIDSearch(&imap.SearchCriteria{
		Since:  r.From.AddDate(0, 0, -1),
		Before: r.To.AddDate(0, 0, 1),
	}, nil).Wait()
	if err != nil {
		return nil, eris.Wrap(err, "imap: uid search")
	}
	uids := search.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > c.cfg.MaxFetch {
		zap.L().Warn("imap: search truncated",
			zap.String("mailbox", c.cfg.Mailbox),
			zap.Int("found", len(uids)),
			zap.Int("max", c.cfg.MaxFetch),
		)
		uids = uids[len(uids)-c.cfg.MaxFetch:]
	}

	body := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetch := conn.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{body},
	})
	defer fetch.Close() //nolint:errcheck

	var items []model.MailItem
	for {
		msg := fetch.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return nil, eris.Wrap(err, "imap: fetch collect")
		}

		item, err := ParseMessage(buf.FindBodySection(body))
		if err != nil {
			zap.L().Warn("imap: skipping unparseable message",
				zap.Uint32("uid", uint32(buf.UID)),
				zap.Error(err),
			)
			continue
		}
		item.ExternalID = ExternalID(c.cfg.Mailbox, sel.UIDValidity, buf.UID)
		fillFromEnvelope(&item, buf.Envelope, buf.InternalDate)
		if item.ThreadExternalID == "" {
			item.ThreadExternalID = item.ExternalID
		}

		if item.Date.Before(r.From) || !item.Date.Before(r.To) {
			continue
		}
		items = append(items, item)
	}
	if err := fetch.Close(); err != nil {
		return nil, eris.Wrap(err, "imap: fetch")
	}
	return items, nil
}

// ExternalID names a message by mailbox, UIDVALIDITY and UID, which is
// stable for as long as the server keeps the mailbox's UIDVALIDITY.
func ExternalID(mailbox string, uidValidity uint32, uid imap.UID) string {
	return fmt.Sprintf("imap:%s:%d:%d", mailbox, uidValidity, uid)
}

func fillFromEnvelope(item *model.MailItem, env *imap.Envelope, internal time.Time) {
	if env != nil {
		if item.Subject == "" {
			item.Subject = env.Subject
		}
		if item.FromAddress == "" && len(env.From) > 0 {
			item.FromAddress = env.From[0].Addr()
		}
		if len(item.ToAddresses) == 0 {
			for _, a := range env.To {
				if addr := a.Addr(); addr != "" {
					item.ToAddresses = append(item.ToAddresses, addr)
				}
			}
		}
		if item.Date.IsZero() {
			item.Date = env.Date
		}
	}
	if item.Date.IsZero() {
		item.Date = internal
	}
	item.Date = item.Date.UTC()
}
