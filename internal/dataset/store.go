// Package dataset loads the static condition catalogue and exposes
// synchronous lookup once loaded. The catalogue is immutable reference data:
// it is parsed and validated once, at construction, and a store is only ever
// handed to the engine fully loaded. Callers that cannot obtain a store treat
// the dataset as unavailable; there is no degraded half-loaded mode.
package dataset

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/domain"
)

//go:embed bnf.json
var embeddedCatalogue []byte

// Store is the loaded catalogue with an id index. Read-only after New.
type Store struct {
	logger    *logrus.Logger
	catalogue domain.Catalogue
	byID      map[domain.ConditionID]*domain.Condition
}

// NewEmbeddedStore loads the catalogue compiled into the binary.
func NewEmbeddedStore(logger *logrus.Logger) (*Store, error) {
	return newStore(logger, embeddedCatalogue, "embedded")
}

// NewStoreFromFile loads a catalogue from an external JSON document.
func NewStoreFromFile(logger *logrus.Logger, path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewTriageErrorf(domain.ErrDatasetUnavailable,
			"failed to read catalogue %s: %v", path, err)
	}
	return newStore(logger, raw, path)
}

func newStore(logger *logrus.Logger, raw []byte, source string) (*Store, error) {
	var catalogue domain.Catalogue
	if err := json.Unmarshal(raw, &catalogue); err != nil {
		return nil, domain.NewTriageErrorf(domain.ErrDatasetUnavailable,
			"failed to parse catalogue %s: %v", source, err)
	}

	s := &Store{
		logger: logger,
		byID:   make(map[domain.ConditionID]*domain.Condition),
	}

	// Malformed entries are dropped with a warning rather than failing the
	// whole load; an entry without an id or keywords can never be reached.
	// The slice capacity is fixed up front so the id index can point into it
	// while it grows. On a duplicate id the first-declared copy wins.
	s.catalogue.Conditions = make([]domain.Condition, 0, len(catalogue.Conditions))
	for _, cond := range catalogue.Conditions {
		if cond.ID == "" || cond.Name == "" || len(cond.SymptomKeywords) == 0 {
			logger.WithFields(logrus.Fields{
				"condition_id":   cond.ID,
				"condition_name": cond.Name,
			}).Warn("Skipping malformed catalogue condition")
			continue
		}
		if _, dup := s.byID[cond.ID]; dup {
			logger.WithField("condition_id", cond.ID).Warn("Skipping duplicate catalogue condition")
			continue
		}
		s.catalogue.Conditions = append(s.catalogue.Conditions, cond)
		s.byID[cond.ID] = &s.catalogue.Conditions[len(s.catalogue.Conditions)-1]
	}

	for _, rule := range catalogue.GlobalRules {
		if len(rule.AppliesTo) == 0 || rule.Reason == "" {
			logger.WithField("rule_id", rule.ID).Warn("Skipping malformed global rule")
			continue
		}
		s.catalogue.GlobalRules = append(s.catalogue.GlobalRules, rule)
	}
	s.catalogue.EmergencyFlags = catalogue.EmergencyFlags

	if len(s.catalogue.Conditions) == 0 {
		return nil, domain.NewTriageErrorf(domain.ErrDatasetUnavailable,
			"catalogue %s contains no usable conditions", source)
	}

	logger.WithFields(logrus.Fields{
		"source":          source,
		"conditions":      len(s.catalogue.Conditions),
		"global_rules":    len(s.catalogue.GlobalRules),
		"emergency_flags": len(s.catalogue.EmergencyFlags),
	}).Info("Loaded condition catalogue")

	return s, nil
}

// Condition looks up one condition by id.
func (s *Store) Condition(id domain.ConditionID) (*domain.Condition, bool) {
	cond, ok := s.byID[id]
	return cond, ok
}

// Conditions returns all conditions in declaration order. Declaration order
// is load-bearing: it is the classifier tie-break and the option ordering.
func (s *Store) Conditions() []domain.Condition {
	return s.catalogue.Conditions
}

// ConditionNames returns the display names in declaration order, used for
// clarification prompts.
func (s *Store) ConditionNames() []string {
	names := make([]string, 0, len(s.catalogue.Conditions))
	for _, cond := range s.catalogue.Conditions {
		names = append(names, cond.Name)
	}
	return names
}

// GlobalRules returns the cross-cutting eligibility rules.
func (s *Store) GlobalRules() []domain.GlobalRule {
	return s.catalogue.GlobalRules
}

// EmergencyFlags returns the red flags evaluated for every condition.
func (s *Store) EmergencyFlags() []domain.RedFlag {
	return s.catalogue.EmergencyFlags
}
