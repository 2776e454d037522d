package paraphrase

import (
	"context"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otc-triage-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestClientDisabledWithoutAPIKey(t *testing.T) {
	client := NewClient(testLogger(), domain.ParaphraseConfig{})
	assert.False(t, client.Enabled())

	_, err := client.Rewrite(context.Background(), &domain.Recommendation{Title: "Headache"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrNotConfigured, domain.ErrorCode(err))
}

func TestClientEnabledWithAPIKey(t *testing.T) {
	client := NewClient(testLogger(), domain.ParaphraseConfig{APIKey: "sk-test"})
	assert.True(t, client.Enabled())
}

func TestBuildSummaryCapsListsAndLength(t *testing.T) {
	rec := &domain.Recommendation{
		Title: strings.Repeat("t", 500),
		Advice: []domain.MedicationOption{
			{ClassName: "Paracetamol"},
			{ClassName: "Ibuprofen"},
		},
		SelfCare: []string{
			"one", "two", "three", "four", "five", "six", "seven", "eight",
		},
		Cautions: []string{strings.Repeat("c", 500)},
		Flags:    []string{"see a GP"},
	}

	summary := buildSummary(rec)

	// Title and items are truncated, lists capped at six entries.
	assert.NotContains(t, summary, strings.Repeat("t", maxTitleLen+1))
	assert.NotContains(t, summary, strings.Repeat("c", maxItemLen+1))
	assert.NotContains(t, summary, "seven")
	assert.NotContains(t, summary, "eight")

	assert.Contains(t, summary, "Paracetamol")
	assert.Contains(t, summary, "Ibuprofen")
	assert.Contains(t, summary, "see a GP")
}

func TestBuildSummaryTruncatesOnRuneBoundary(t *testing.T) {
	// The leading ASCII byte shifts every two-byte rune off the byte cap, so
	// a naive byte slice would split a rune at the cut. The truncated summary
	// must still be valid UTF-8.
	rec := &domain.Recommendation{
		Title:    "x" + strings.Repeat("é", maxTitleLen),
		Cautions: []string{"x" + strings.Repeat("ü", maxItemLen)},
	}

	summary := buildSummary(rec)
	assert.True(t, utf8.ValidString(summary))
}

func TestBuildSummaryOmitsEmptySections(t *testing.T) {
	rec := &domain.Recommendation{Title: "Sore throat"}
	summary := buildSummary(rec)

	assert.Contains(t, summary, "Condition: Sore throat")
	assert.NotContains(t, summary, "Suggested options")
	assert.NotContains(t, summary, "Cautions")
	assert.NotContains(t, summary, "See a doctor because")
}
