package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeName(""))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeName_Fold(t *testing.T) {
	assert.Equal(t, "acme advisors", NormalizeName("ACME Advisors"))
	assert.Equal(t, "societe generale", NormalizeName("Société Générale"))
}

func TestNormalizeName_StripSuffixes(t *testing.T) {
	for _, in := range []string{
		"Acme Advisors LLC", "Acme Advisors L.L.C.", "Acme Advisors, Inc.",
		"Acme Advisors Incorporated", "Acme Advisors Corp", "Acme Advisors Corporation",
		"Acme Advisors Ltd.", "Acme Advisors GmbH", "Acme Advisors Co.",
	} {
		assert.Equal(t, "acme advisors", NormalizeName(in), in)
	}
}

func TestNormalizeName_Punctuation(t *testing.T) {
	assert.Equal(t, "smith and jones", NormalizeName("Smith & Jones"))
	assert.Equal(t, "joes advisors", NormalizeName("Joe's Advisors"))
	assert.Equal(t, "data dog", NormalizeName("Data-Dog"))
	assert.Equal(t, "data dog", NormalizeName("data_dog"))
}

func TestCompactName(t *testing.T) {
	assert.Equal(t, "datadog", CompactName("Data Dog"))
	assert.Equal(t, "datadog", CompactName("DataDog Inc"))
	assert.Equal(t, "datadog", CompactName("data-dog"))
}

func TestNamesMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"Data Dog", "datadog", true},
		{"DataDog Inc", "Data Dog", true},
		{"Acme", "Acme Corp", true},
		{"Acme Labs", "acme", true},
		{"Globex", "Initech", false},
		{"", "Acme", false},
		{"IB", "IBM", false},
		{"IBM", "ibm", true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NamesMatch(tt.a, tt.b))
			assert.Equal(t, tt.want, NamesMatch(tt.b, tt.a))
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("acme phone screen", "acme"))
	assert.True(t, containsWord("onsite at acme labs", "acme labs"))
	assert.False(t, containsWord("acmeville meetup", "acme"))
	assert.False(t, containsWord("", "acme"))
	assert.False(t, containsWord("acme", ""))
}
