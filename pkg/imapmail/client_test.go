package imapmail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobtrack/internal/model"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

const multipartMsg = `From: Jane Recruiter <Jane@Acme.com>
To: me@example.com, other@example.com
Subject: Interview availability
Date: Fri, 10 Jan 2025 15:04:05 +0000
Message-ID: <reply-2@acme.com>
In-Reply-To: <reply-1@acme.com>
References: <root@acme.com> <reply-1@acme.com>
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Are you free Tuesday?
--b1
Content-Type: text/html; charset=utf-8

<p>Are you free <b>Tuesday</b>?</p>
--b1--
`

const htmlOnlyMsg = `From: jobs@acme.com
To: me@example.com
Subject: Your application
Date: Mon, 13 Jan 2025 09:00:00 -0500
Message-ID: <solo@acme.com>
MIME-Version: 1.0
Content-Type: text/html; charset=utf-8

<html><body><div>Thank you for applying</div><div>The Acme team</div></body></html>
`

func TestParseMessage_Multipart(t *testing.T) {
	item, err := ParseMessage(crlf(multipartMsg))
	require.NoError(t, err)

	assert.Equal(t, "Interview availability", item.Subject)
	assert.Equal(t, "jane@acme.com", item.FromAddress)
	assert.Equal(t, []string{"me@example.com", "other@example.com"}, item.ToAddresses)
	assert.Equal(t, "Are you free Tuesday?", item.Body)
	assert.Equal(t, "root@acme.com", item.ThreadExternalID)
	assert.Equal(t, time.Date(2025, 1, 10, 15, 4, 5, 0, time.UTC), item.Date)
	assert.Empty(t, item.ExternalID)
}

func TestParseMessage_HTMLOnly(t *testing.T) {
	item, err := ParseMessage(crlf(htmlOnlyMsg))
	require.NoError(t, err)

	assert.Equal(t, "Thank you for applying\nThe Acme team", item.Body)
	assert.Equal(t, "solo@acme.com", item.ThreadExternalID)
	assert.Equal(t, time.Date(2025, 1, 13, 14, 0, 0, 0, time.UTC), item.Date)
}

func TestParseMessage_InReplyToOnly(t *testing.T) {
	raw := crlf("From: a@b.com\nSubject: Re: hi\nMessage-ID: <c@b.com>\nIn-Reply-To: <p@b.com>\n\nbody\n")
	item, err := ParseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "p@b.com", item.ThreadExternalID)
	assert.Equal(t, "body", item.Body)
	assert.True(t, item.Date.IsZero())
}

func TestParseMessage_Empty(t *testing.T) {
	_, err := ParseMessage(nil)
	require.Error(t, err)
}

func TestExternalID(t *testing.T) {
	assert.Equal(t, "imap:INBOX:42:7", ExternalID("INBOX", 42, imap.UID(7)))
}

func TestFillFromEnvelope(t *testing.T) {
	internal := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	t.Run("fills gaps", func(t *testing.T) {
		var item model.MailItem
		fillFromEnvelope(&item, &imap.Envelope{
			Subject: "Offer",
			From:    []imap.Address{{Mailbox: "hr", Host: "acme.com"}},
			To:      []imap.Address{{Mailbox: "me", Host: "example.com"}},
		}, internal)
		assert.Equal(t, "Offer", item.Subject)
		assert.Equal(t, "hr@acme.com", item.FromAddress)
		assert.Equal(t, []string{"me@example.com"}, item.ToAddresses)
		assert.Equal(t, internal.UTC(), item.Date)
	})

	t.Run("keeps parsed values", func(t *testing.T) {
		parsed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		item := model.MailItem{Subject: "Parsed", FromAddress: "a@b.com", Date: parsed}
		fillFromEnvelope(&item, &imap.Envelope{Subject: "Envelope"}, internal)
		assert.Equal(t, "Parsed", item.Subject)
		assert.Equal(t, "a@b.com", item.FromAddress)
		assert.Equal(t, parsed, item.Date)
	})

	t.Run("nil envelope", func(t *testing.T) {
		var item model.MailItem
		fillFromEnvelope(&item, nil, internal)
		assert.Equal(t, internal.UTC(), item.Date)
	})
}

func TestNew_Validation(t *testing.T) {
	pw := func(context.Context, string) (string, error) { return "pw", nil }

	_, err := New(Config{Username: "me"}, pw)
	assert.Error(t, err)
	_, err = New(Config{Addr: "imap.example.com:993"}, pw)
	assert.Error(t, err)
	_, err = New(Config{Addr: "imap.example.com:993", Username: "me"}, nil)
	assert.Error(t, err)

	c, err := New(Config{Addr: "imap.example.com:993", Username: "me"}, pw)
	require.NoError(t, err)
	assert.Equal(t, defaultMailbox, c.cfg.Mailbox)
	assert.Equal(t, defaultMaxFetch, c.cfg.MaxFetch)
	assert.NotNil(t, c.cfg.TLS)
}

func TestListMessages_InvalidRange(t *testing.T) {
	c, err := New(Config{Addr: "127.0.0.1:1", Username: "me"}, func(context.Context, string) (string, error) {
		return "pw", nil
	})
	require.NoError(t, err)
	_, err = c.ListMessages(context.Background(), "u1", model.DateRange{})
	require.Error(t, err)
}
