package company

import (
	"context"

	"github.com/sells-group/jobtrack/internal/model"
)

// Store defines the persistence operations identity resolution needs. All
// calls are scoped by user id.
type Store interface {
	ListCompanies(ctx context.Context, userID string) ([]model.Company, error)
	ListContacts(ctx context.Context, userID string) ([]model.Contact, error)

	// InsertCompany creates c unless a company with c.ID already exists.
	// It reports whether a row was written.
	InsertCompany(ctx context.Context, c *model.Company) (bool, error)

	// InsertContact creates c unless a contact with c.ID already exists.
	// A primary contact clears any other primary contact of the same
	// company in the same transaction.
	InsertContact(ctx context.Context, c *model.Contact) (bool, error)
}
