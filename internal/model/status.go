// Package model defines the records, enums and sync results shared by the
// resolution and reconciliation engine.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// JobStatus is the application state of a job posting.
type JobStatus string

const (
	StatusInterested   JobStatus = "interested"
	StatusApplied      JobStatus = "applied"
	StatusInterviewing JobStatus = "interviewing"
	StatusOffer        JobStatus = "offer"
	StatusRejected     JobStatus = "rejected"
	StatusWithdrew     JobStatus = "withdrew"
)

// statusRank is the strict total order over JobStatus. It is only used to
// block regressions, never to pick a winner between unrelated signals.
var statusRank = map[JobStatus]int{
	StatusInterested:   0,
	StatusApplied:      1,
	StatusInterviewing: 2,
	StatusOffer:        3,
	StatusRejected:     4,
	StatusWithdrew:     5,
}

// AllJobStatuses returns every status in rank order.
func AllJobStatuses() []JobStatus {
	return []JobStatus{
		StatusInterested,
		StatusApplied,
		StatusInterviewing,
		StatusOffer,
		StatusRejected,
		StatusWithdrew,
	}
}

// Rank returns the position of s in the status order, or -1 for an unknown value.
func (s JobStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Terminal reports whether no automated signal may move a posting out of s.
func (s JobStatus) Terminal() bool {
	return s == StatusRejected || s == StatusWithdrew
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// ParseJobStatus parses a status name case-insensitively. A few spellings
// seen in hand-maintained trackers are accepted as aliases.
func ParseJobStatus(raw string) (JobStatus, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "withdrawn":
		s = string(StatusWithdrew)
	case "interview":
		s = string(StatusInterviewing)
	case "rejection", "declined":
		s = string(StatusRejected)
	}
	st := JobStatus(s)
	if !st.Valid() {
		return "", eris.Errorf("model: unknown job status %q", raw)
	}
	return st, nil
}
