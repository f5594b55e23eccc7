package company

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists legal entity suffixes stripped during name
// normalization. Punctuation is already removed when they are checked, so
// "L.L.C." arrives as "llc".
var legalSuffixes = []string{
	" llc", " inc", " incorporated",
	" corp", " corporation",
	" ltd", " limited",
	" lp", " llp", " pllc",
	" pc", " pa", " co", " plc",
	" gmbh", " ag", " sa", " bv",
	" dba",
}

var punctReplacer = strings.NewReplacer(
	"&", " and ",
	"-", " ",
	"_", " ",
	"/", " ",
	"@", " ",
	",", "",
	".", "",
	"'", "",
	"’", "",
	"\"", "",
	"(", " ",
	")", " ",
	"!", " ",
	"?", " ",
	":", " ",
	";", " ",
	"|", " ",
)

// foldText case-folds s and strips diacritics. Casers and transformers are
// stateful, so each call builds its own.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// normalizeText folds s and reduces punctuation to single spaces. The
// result is suitable for whole-word matching.
func normalizeText(s string) string {
	s = punctReplacer.Replace(foldText(s))
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName standardizes a company name for matching:
//  1. Case-fold and strip diacritics
//  2. Strip punctuation ("&" becomes "and")
//  3. Collapse whitespace
//  4. Remove one trailing legal suffix (LLC, Inc, Corp, ...)
func NormalizeName(name string) string {
	s := normalizeText(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return strings.TrimSpace(s)
}

// CompactName returns NormalizeName with every space removed, so "Data Dog"
// and "DataDog Inc" both become "datadog".
func CompactName(name string) string {
	return strings.ReplaceAll(NormalizeName(name), " ", "")
}

// minContainLen is the shortest compact name allowed to match by
// containment. Shorter names must match exactly.
const minContainLen = 3

// NamesMatch reports whether two company names refer to the same company
// using normalized containment in both directions.
func NamesMatch(a, b string) bool {
	ca, cb := CompactName(a), CompactName(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	short, long := ca, cb
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= minContainLen && strings.Contains(long, short)
}

// containsWord reports whether phrase appears in text on word boundaries.
// Both arguments must already be normalized.
func containsWord(text, phrase string) bool {
	if text == "" || phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// containsCompactRun reports whether some run of consecutive words joins,
// without spaces, into compact. "data dog" and "datadog" both match
// "datadog"; a partial word never does.
func containsCompactRun(words []string, compact string) bool {
	if len(compact) < minContainLen {
		return false
	}
	for i := range words {
		run := ""
		for _, w := range words[i:] {
			run += w
			if len(run) >= len(compact) {
				if run == compact {
					return true
				}
				break
			}
		}
	}
	return false
}
