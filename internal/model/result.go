package model

// ItemErrorKind classifies a non-fatal per-item failure.
type ItemErrorKind string

const (
	ItemPersistenceFailure ItemErrorKind = "persistence_failure"
	ItemResolutionFailure  ItemErrorKind = "resolution_failure"
	ItemReconcileFailure   ItemErrorKind = "reconcile_failure"
	ItemInvalid            ItemErrorKind = "invalid_item"
)

// ItemError records one item that could not be processed. The batch continues.
type ItemError struct {
	ExternalID string        `json:"external_id,omitempty"`
	CompanyID  string        `json:"company_id,omitempty"`
	Kind       ItemErrorKind `json:"kind"`
	Message    string        `json:"message"`
}

// SyncResult is the response contract of a sync invocation.
type SyncResult struct {
	Created     int         `json:"created_count"`
	Updated     int         `json:"updated_count"`
	Skipped     int         `json:"skipped_count"`
	NewContacts int         `json:"new_contacts_count"`
	Errors      []ItemError `json:"errors"`
}

// AddError appends a per-item error.
func (r *SyncResult) AddError(kind ItemErrorKind, externalID, companyID string, err error) {
	r.Errors = append(r.Errors, ItemError{
		ExternalID: externalID,
		CompanyID:  companyID,
		Kind:       kind,
		Message:    err.Error(),
	})
}
