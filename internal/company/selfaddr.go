package company

import "github.com/sells-group/jobtrack/internal/model"

// DefaultSelfThreshold is the fraction of messages an address must receive
// to be considered the user's own.
const DefaultSelfThreshold = 0.5

// minSelfMessages is the smallest message set the heuristic trusts.
const minSelfMessages = 3

// SelfAddresses returns the addresses that appear as a recipient on at
// least threshold of messages. An address is counted once per message.
// Fewer than three messages yield an empty set.
func SelfAddresses(messages []model.MailItem, threshold float64) map[string]struct{} {
	out := make(map[string]struct{})
	if len(messages) < minSelfMessages {
		return out
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSelfThreshold
	}

	counts := make(map[string]int)
	for _, m := range messages {
		seen := make(map[string]struct{}, len(m.ToAddresses))
		for _, to := range m.ToAddresses {
			e := NormalizeEmail(to)
			if e == "" {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			counts[e]++
		}
	}

	total := float64(len(messages))
	for addr, n := range counts {
		if float64(n)/total >= threshold {
			out[addr] = struct{}{}
		}
	}
	return out
}
