package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otc-triage-server/internal/domain"
)

func TestParseWho(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected domain.WhoCategory
		ok       bool
	}{
		{"canonical echo", "adult", domain.WhoAdult, true},
		{"for myself", "It's for me", domain.WhoAdult, true},
		{"pregnant outranks adult", "I'm pregnant", domain.WhoPregnant, true},
		{"breastfeeding", "for a breastfeeding mum", domain.WhoBreastfeeding, true},
		{"child by age", "my 8 year old son", domain.WhoChild, true},
		{"toddler", "our toddler", domain.WhoToddler, true},
		{"infant", "my baby", domain.WhoInfant, true},
		{"teenager", "a teenager", domain.WhoTeen, true},
		{"canonical child category", "child 5–12", domain.WhoChild, true},
		{"unparseable", "hard to say", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseWho(tt.text)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected domain.DurationBucket
		ok       bool
	}{
		{"canonical echo", "1–3 days", domain.Duration1To3Days, true},
		{"hours", "about 12 hours", domain.DurationUnder24h, true},
		{"today", "it started today", domain.DurationUnder24h, true},
		{"since yesterday", "since yesterday", domain.DurationUnder24h, true},
		{"boundary three days", "3 days", domain.Duration1To3Days, true},
		{"boundary four days", "4 days", domain.Duration4To7Days, true},
		{"boundary seven days", "7 days", domain.Duration4To7Days, true},
		{"boundary eight days", "8 days", domain.DurationOver7Days, true},
		{"one week", "1 week now", domain.Duration4To7Days, true},
		{"two weeks", "2 weeks", domain.DurationOver7Days, true},
		{"months", "3 months", domain.DurationOver7Days, true},
		{"couple of days", "a couple of days", domain.Duration1To3Days, true},
		{"about a week", "about a week", domain.Duration4To7Days, true},
		{"more than a week", "more than a week", domain.DurationOver7Days, true},
		{"recurrent phrase", "it comes and goes", domain.DurationRecurrent, true},
		{"recurrent outranks numbers", "recurring, every 2 days or so", domain.DurationRecurrent, true},
		{"unparseable", "blue", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDuration(tt.text)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseFreeform(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		ok       bool
	}{
		{"nothing collapses to none", "Nothing yet", "none", true},
		{"bare no", "no", "none", true},
		{"have not taken", "haven't taken anything", "none", true},
		{"kept lowercased", "I took some Paracetamol", "i took some paracetamol", true},
		{"empty", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFreeform(tt.text)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
