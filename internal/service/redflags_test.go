package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otc-triage-server/internal/domain"
)

func TestSafetyGatePatternTriggers(t *testing.T) {
	store := testStore(t)
	gate := NewSafetyGate(testLogger(), store)

	headache, ok := store.Condition("headache-simple")
	require.True(t, ok)

	tests := []struct {
		name      string
		freeText  string
		wantFlags int
	}{
		{"thunderclap", "this is the worst headache of my life", 1},
		{"two flags at once", "a thunderclap headache after I hit my head", 2},
		{"benign text", "a dull headache after a long day at work", 0},
		{"negated symptom", "no weakness or confusion, just a headache", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := gate.Check(headache, tt.freeText, domain.Slots{})
			assert.Len(t, flags, tt.wantFlags)
		})
	}
}

func TestSafetyGateDurationTrigger(t *testing.T) {
	store := testStore(t)
	gate := NewSafetyGate(testLogger(), store)

	diarrhoea, ok := store.Condition("acute-diarrhoea")
	require.True(t, ok)

	flags := gate.Check(diarrhoea, "loose stools, nothing else", domain.Slots{
		Duration: domain.DurationOver7Days,
	})
	require.Len(t, flags, 1)
	assert.Contains(t, flags[0], "more than 7 days")

	flags = gate.Check(diarrhoea, "loose stools, nothing else", domain.Slots{
		Duration: domain.Duration1To3Days,
	})
	assert.Empty(t, flags)
}

func TestSafetyGateEmergencyFlagsApplyToEveryCondition(t *testing.T) {
	store := testStore(t)
	gate := NewSafetyGate(testLogger(), store)

	soreThroat, ok := store.Condition("sore-throat-acute")
	require.True(t, ok)

	flags := gate.Check(soreThroat, "sore throat and now chest pain too", domain.Slots{})
	require.NotEmpty(t, flags)
	assert.Contains(t, flags[0], "999")
}

func TestSafetyGateDeduplicatesByText(t *testing.T) {
	store := testStore(t)
	gate := NewSafetyGate(testLogger(), store)

	dyspepsia, ok := store.Condition("dyspepsia-heartburn")
	require.True(t, ok)

	// "vomiting blood" matches both the condition flag and the emergency
	// flag; both texts appear, each exactly once.
	flags := gate.Check(dyspepsia, "I have been vomiting blood", domain.Slots{})
	require.Len(t, flags, 2)
	assert.NotEqual(t, flags[0], flags[1])
}
