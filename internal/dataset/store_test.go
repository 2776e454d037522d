package dataset

import (
	"io"
	"os"
	"path/filepath"
	"testing"

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

func TestNewEmbeddedStore(t *testing.T) {
	store, err := NewEmbeddedStore(testLogger())
	require.NoError(t, err)

	conditions := store.Conditions()
	require.NotEmpty(t, conditions)

	// Declaration order is the classifier tie-break, so it must survive load.
	names := store.ConditionNames()
	require.Equal(t, len(conditions), len(names))
	for i, cond := range conditions {
		assert.Equal(t, cond.Name, names[i])
	}

	assert.NotEmpty(t, store.GlobalRules())
	assert.NotEmpty(t, store.EmergencyFlags())
}

func TestStoreConditionLookup(t *testing.T) {
	store, err := NewEmbeddedStore(testLogger())
	require.NoError(t, err)

	cond, ok := store.Condition(domain.ConditionID("headache-simple"))
	require.True(t, ok)
	assert.Equal(t, "Headache (tension-type)", cond.Name)
	assert.NotEmpty(t, cond.SymptomKeywords)
	assert.NotEmpty(t, cond.Options)

	_, ok = store.Condition(domain.ConditionID("no-such-condition"))
	assert.False(t, ok)
}

func TestNewStoreFromFileSkipsMalformedEntries(t *testing.T) {
	doc := `{
		"conditions": [
			{
				"id": "usable",
				"name": "Usable condition",
				"symptom_keywords": ["usable"],
				"options": []
			},
			{
				"name": "Missing id",
				"symptom_keywords": ["broken"]
			},
			{
				"id": "no-keywords",
				"name": "No keywords"
			}
		],
		"global_rules": [
			{"applies_to": ["x"], "criteria": {}, "reason": "valid rule"},
			{"applies_to": [], "criteria": {}, "reason": "dropped"}
		]
	}`
	path := filepath.Join(t.TempDir(), "catalogue.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store, err := NewStoreFromFile(testLogger(), path)
	require.NoError(t, err)

	assert.Len(t, store.Conditions(), 1)
	assert.Len(t, store.GlobalRules(), 1)

	_, ok := store.Condition(domain.ConditionID("usable"))
	assert.True(t, ok)
}

func TestNewStoreFromFileKeepsFirstDeclaredDuplicate(t *testing.T) {
	doc := `{
		"conditions": [
			{
				"id": "dup",
				"name": "First copy",
				"symptom_keywords": ["first"]
			},
			{
				"id": "dup",
				"name": "Second copy",
				"symptom_keywords": ["second"]
			}
		]
	}`
	path := filepath.Join(t.TempDir(), "catalogue.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store, err := NewStoreFromFile(testLogger(), path)
	require.NoError(t, err)

	require.Len(t, store.Conditions(), 1)

	cond, ok := store.Condition(domain.ConditionID("dup"))
	require.True(t, ok)
	assert.Equal(t, "First copy", cond.Name)
}

func TestNewStoreFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewStoreFromFile(testLogger(), filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.Equal(t, domain.ErrDatasetUnavailable, domain.ErrorCode(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := NewStoreFromFile(testLogger(), path)
		require.Error(t, err)
		assert.Equal(t, domain.ErrDatasetUnavailable, domain.ErrorCode(err))
	})

	t.Run("no usable conditions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"conditions": []}`), 0o644))
		_, err := NewStoreFromFile(testLogger(), path)
		require.Error(t, err)
		assert.Equal(t, domain.ErrDatasetUnavailable, domain.ErrorCode(err))
	})
}
