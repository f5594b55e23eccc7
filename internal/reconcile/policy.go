package reconcile

import (
	"sort"
	"time"

	"github.com/sells-group/jobtrack/internal/model"
)

// Candidate is a status implied by one signal, dated by that signal.
type Candidate struct {
	Status model.JobStatus `json:"status"`
	At     time.Time       `json:"at"`
	Source string          `json:"source,omitempty"`
}

// SortCandidates returns a copy of cands ordered oldest first. Candidates
// with equal dates keep their input order.
func SortCandidates(cands []Candidate) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// ReplayLatest is the batch policy: latest evidence wins. Candidates are
// replayed oldest first over the persisted status, each replacing the
// effective status unless the effective status is withdrew or the
// candidate repeats it. A terminal persisted status is returned unchanged.
// Unknown statuses are ignored.
func ReplayLatest(persisted model.JobStatus, cands []Candidate) model.JobStatus {
	if persisted.Terminal() {
		return persisted
	}
	effective := persisted
	for _, c := range SortCandidates(cands) {
		if !c.Status.Valid() {
			continue
		}
		if effective == model.StatusWithdrew || c.Status == effective {
			continue
		}
		effective = c.Status
	}
	return effective
}

// Advance is the incremental policy: monotonic only. The candidate is
// applied when it ranks strictly above current and current is not terminal.
func Advance(current, candidate model.JobStatus) (model.JobStatus, bool) {
	if !candidate.Valid() || current.Terminal() {
		return current, false
	}
	if candidate.Rank() > current.Rank() {
		return candidate, true
	}
	return current, false
}
