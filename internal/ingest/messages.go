package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/classify"
	"github.com/sells-group/jobtrack/internal/company"
	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/reconcile"
)

// SyncMessages pulls the user's messages for the window and ingests them
// with the batch reconciliation policy.
func (e *Engine) SyncMessages(ctx context.Context, req SyncRequest) (model.SyncResult, error) {
	if err := req.validate(); err != nil {
		return model.SyncResult{}, err
	}
	if e.mail == nil {
		return model.SyncResult{}, eris.New("ingest: no mail provider configured")
	}

	items, err := e.mail.ListMessages(ctx, req.UserID, req.Range)
	if err != nil {
		return model.SyncResult{}, eris.Wrap(err, "ingest: list messages")
	}
	return e.IngestMessages(ctx, req.UserID, req.UserEmail, items)
}

// IngestMessages runs the message pipeline over an already fetched page.
// The user's own addresses are the given address plus any address that
// receives most of the page.
func (e *Engine) IngestMessages(ctx context.Context, userID, userEmail string, items []model.MailItem) (model.SyncResult, error) {
	if err := e.checkPage(len(items)); err != nil {
		return model.SyncResult{}, err
	}

	start := time.Now()
	log := zap.L().With(zap.String("user_id", userID), zap.String("kind", string(model.SyncKindMessages)))
	runID := e.startRun(ctx, userID, model.SyncKindMessages)
	res := model.SyncResult{Errors: []model.ItemError{}}

	resolver, err := company.NewResolver(ctx, e.store, userID, e.policy(userEmail))
	if err != nil {
		err = eris.Wrap(err, "ingest: load directory")
		e.finishRun(ctx, runID, &res, err)
		return res, err
	}
	self := company.SelfAddresses(items, e.cfg.SelfAddressThreshold)
	if addr := company.NormalizeEmail(userEmail); addr != "" {
		self[addr] = struct{}{}
	}

	seen := make(map[string]struct{}, len(items))
	cands := make(map[string][]reconcile.Candidate)
	var order []string

	for _, item := range items {
		if item.ExternalID == "" {
			res.Skipped++
			res.AddError(model.ItemInvalid, "", "", eris.New("ingest: mail item without external id"))
			continue
		}
		if _, dup := seen[item.ExternalID]; dup {
			res.Skipped++
			continue
		}
		seen[item.ExternalID] = struct{}{}

		msg, st, ok, err := e.ingestMessage(ctx, resolver, userID, self, item)
		if err != nil {
			kind := model.ItemPersistenceFailure
			if errors.Is(err, errResolution) {
				kind = model.ItemResolutionFailure
			}
			log.Warn("ingest: message failed", zap.String("external_id", item.ExternalID), zap.Error(err))
			res.AddError(kind, item.ExternalID, msg.CompanyID, err)
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.NewContacts += st.newContacts
		countOutcome(&res, st.outcome)

		if status, ok := reconcile.InferMessage(msg.MessageType); ok {
			if _, known := cands[msg.CompanyID]; !known {
				order = append(order, msg.CompanyID)
			}
			cands[msg.CompanyID] = append(cands[msg.CompanyID], reconcile.Candidate{
				Status: status,
				At:     msg.Date,
				Source: "message:" + item.ExternalID,
			})
		}
	}

	e.reconcileBatch(ctx, userID, order, cands, &res)
	e.syncTrackerBestEffort(ctx, userID)
	e.finishRun(ctx, runID, &res, nil)

	log.Info("ingest: message sync complete",
		zap.Int("items", len(items)),
		zap.Int("self_addresses", len(self)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("new_contacts", res.NewContacts),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// IngestResult is the outcome of ingesting one pushed message.
type IngestResult struct {
	MessageID   string            `json:"message_id,omitempty"`
	CompanyID   string            `json:"company_id,omitempty"`
	MessageType model.MessageType `json:"message_type"`
	Outcome     dedup.Outcome     `json:"outcome,omitempty"`
	Skipped     bool              `json:"skipped"`
	NewContacts int               `json:"new_contacts"`
	Status      model.JobStatus   `json:"status,omitempty"`
	Changed     bool              `json:"status_changed"`
}

// IngestMessage ingests one pushed message and advances the company's
// status with the monotonic policy. Unlike a batch sync, an older message
// can never move a status backwards here.
func (e *Engine) IngestMessage(ctx context.Context, userID, userEmail string, item model.MailItem) (IngestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return IngestResult{}, eris.Wrap(ErrInvalidRequest, "user id is required")
	}
	if item.ExternalID == "" {
		return IngestResult{}, eris.Wrap(ErrInvalidRequest, "message external id is required")
	}

	resolver, err := company.NewResolver(ctx, e.store, userID, e.policy(userEmail))
	if err != nil {
		return IngestResult{}, eris.Wrap(err, "ingest: load directory")
	}

	msg, st, ok, err := e.ingestMessage(ctx, resolver, userID, selfSet(userEmail), item)
	out := IngestResult{MessageType: msg.MessageType, CompanyID: msg.CompanyID}
	if err != nil {
		return out, err
	}
	if !ok {
		out.Skipped = true
		return out, nil
	}
	out.MessageID = msg.ID
	out.Outcome = st.outcome
	out.NewContacts = st.newContacts

	if status, ok := reconcile.InferMessage(msg.MessageType); ok {
		r, err := e.reconciler.AdvanceStatus(ctx, userID, msg.CompanyID, status)
		if err != nil {
			return out, eris.Wrap(err, "ingest: advance status")
		}
		out.Status = r.Final
		out.Changed = r.Changed()
	}
	return out, nil
}

var errResolution = eris.New("ingest: resolution failed")

type messageStats struct {
	outcome     dedup.Outcome
	newContacts int
}

// ingestMessage classifies, resolves and persists one message. ok is false
// when the message is skipped: bulk mail, or no resolvable company.
func (e *Engine) ingestMessage(ctx context.Context, resolver *company.Resolver, userID string, self map[string]struct{}, item model.MailItem) (model.Message, messageStats, bool, error) {
	body := provider.PlainBody(item.Body)
	msgType := classify.ClassifyMessage(item.Subject, body, item.FromAddress)
	msg := model.Message{
		UserID:           userID,
		ExternalID:       item.ExternalID,
		ThreadExternalID: item.ThreadExternalID,
		Subject:          strings.TrimSpace(item.Subject),
		FromAddress:      company.NormalizeEmail(item.FromAddress),
		ToAddresses:      item.ToAddresses,
		MessageType:      msgType,
		Date:             item.Date.UTC(),
	}
	if msgType == model.MessageSpam || msgType == model.MessageNewsletter {
		return msg, messageStats{}, false, nil
	}

	addrs := append([]string{item.FromAddress}, item.ToAddresses...)
	participants := company.Participants(addrs, self)
	match, ok, err := resolver.ResolveOrCreate(ctx, company.Signals{Emails: participants, Text: item.Subject})
	if err != nil {
		return msg, messageStats{}, false, eris.Wrapf(errResolution, "message %s: %v", item.ExternalID, err)
	}
	if !ok {
		return msg, messageStats{}, false, nil
	}
	msg.CompanyID = match.CompanyID

	stored, outcome, err := e.upserter.UpsertMessage(ctx, msg)
	if err != nil {
		return msg, messageStats{}, false, err
	}
	return stored, messageStats{outcome: outcome, newContacts: match.NewContacts}, true, nil
}
