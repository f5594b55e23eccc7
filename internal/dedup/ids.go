// Package dedup maps provider external ids to stable internal ids and
// performs idempotent create-or-update writes keyed on them.
package dedup

import (
	"strings"

	"github.com/google/uuid"
)

// Namespaces seed InternalID per record kind. They must never change:
// existing rows are addressed by ids derived from them.
var (
	NamespaceCalendarEvent = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f01")
	NamespaceMessage       = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f02")
	NamespaceThread        = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f03")
	NamespaceCompany       = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f04")
	NamespaceContact       = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f05")
	NamespaceTrackerRow    = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f06")
	NamespacePosting       = uuid.MustParse("6f1f3c2a-2f4e-5b7a-9d1e-3c6a1b0e4f07")
)

// InternalID returns the UUIDv5 of (userID, externalID) under ns. The same
// inputs always produce the same id. External ids are compared exactly;
// callers normalize case where the provider is case-insensitive.
func InternalID(ns uuid.UUID, userID, externalID string) string {
	return uuid.NewSHA1(ns, []byte(userID+"\x00"+externalID)).String()
}

// EmailKey normalizes an email address for use as an external id.
func EmailKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
