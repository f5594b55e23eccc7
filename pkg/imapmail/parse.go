package imapmail

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // non-UTF-8 bodies
	"github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
)

// ParseMessage reads a raw RFC 822 message into a MailItem. ExternalID is
// left empty; the caller owns the naming scheme. The body prefers the first
// text/plain part and falls back to text/html reduced to text.
func ParseMessage(raw []byte) (model.MailItem, error) {
	if len(raw) == 0 {
		return model.MailItem{}, eris.New("imap: empty message")
	}
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return model.MailItem{}, eris.Wrap(err, "imap: read message")
	}
	defer mr.Close() //nolint:errcheck

	var item model.MailItem
	h := mr.Header
	item.Subject, _ = h.Subject()
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		item.FromAddress = strings.ToLower(from[0].Address)
	}
	if to, err := h.AddressList("To"); err == nil {
		for _, a := range to {
			if a.Address != "" {
				item.ToAddresses = append(item.ToAddresses, strings.ToLower(a.Address))
			}
		}
	}
	if d, err := h.Date(); err == nil {
		item.Date = d.UTC()
	}
	item.ThreadExternalID = threadID(h)

	var plain, html string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return model.MailItem{}, eris.Wrap(err, "imap: read part")
		}
		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		switch ct {
		case "text/plain", "":
			if plain == "" {
				plain = readPart(p.Body)
			}
		case "text/html":
			if html == "" {
				html = readPart(p.Body)
			}
		}
	}

	switch {
	case strings.TrimSpace(plain) != "":
		item.Body = provider.PlainBody(plain)
	case html != "":
		item.Body = provider.PlainBody(html)
	}
	return item, nil
}

func readPart(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// threadID names the conversation by its root message: the first References
// entry, else the first In-Reply-To, else the message's own Message-ID.
func threadID(h mail.Header) string {
	if refs, err := h.MsgIDList("References"); err == nil && len(refs) > 0 {
		return refs[0]
	}
	if parents, err := h.MsgIDList("In-Reply-To"); err == nil && len(parents) > 0 {
		return parents[0]
	}
	if id, err := h.MessageID(); err == nil && id != "" {
		return id
	}
	return ""
}
