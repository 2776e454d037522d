package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/domain"
	"github.com/otc-triage-server/pkg/textmatch"
)

// fuzzyThreshold is the maximum edit distance accepted by the fallback pass.
const fuzzyThreshold = 2

// fuzzyMinLen keeps the fallback away from stopwords: tokens and keyword
// head-words shorter than this are never fuzzy-matched ("and" is two edits
// from "acid").
const fuzzyMinLen = 4

// Classifier maps free-form symptom text to a condition id. Classification
// is deterministic: a direct keyword pass in catalogue declaration order,
// then an edit-distance fallback over tokens. Declaration order is the
// tie-break in both passes.
type Classifier struct {
	logger     *logrus.Logger
	conditions []domain.Condition
}

// NewClassifier creates a classifier over the loaded catalogue.
func NewClassifier(logger *logrus.Logger, store *dataset.Store) *Classifier {
	return &Classifier{
		logger:     logger,
		conditions: store.Conditions(),
	}
}

// Classify returns the matched condition id, or ok=false when no candidate
// meets the threshold. A false result means "needs clarification", never an
// error.
func (c *Classifier) Classify(text string) (domain.ConditionID, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return "", false
	}

	// Pass 1: direct substring match, first declared condition wins.
	for _, cond := range c.conditions {
		for _, keyword := range cond.SymptomKeywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				c.logger.WithFields(logrus.Fields{
					"condition": cond.ID,
					"keyword":   keyword,
				}).Debug("Classified condition by keyword")
				return cond.ID, true
			}
		}
	}

	// Pass 2: fuzzy match each token against keyword head-words. The best
	// (lowest) distance wins; strict comparison keeps the earliest declared
	// condition on ties.
	tokens := textmatch.Tokens(lowered)
	bestDistance := fuzzyThreshold + 1
	var bestCondition domain.ConditionID

	for _, cond := range c.conditions {
		condBest := fuzzyThreshold + 1
		for _, keyword := range cond.SymptomKeywords {
			head := headWord(keyword)
			if len(head) < fuzzyMinLen {
				continue
			}
			for _, token := range tokens {
				if len(token) < fuzzyMinLen {
					continue
				}
				if d := textmatch.Levenshtein(head, token); d < condBest {
					condBest = d
				}
			}
		}
		if condBest < bestDistance {
			bestDistance = condBest
			bestCondition = cond.ID
		}
	}

	if bestDistance <= fuzzyThreshold {
		c.logger.WithFields(logrus.Fields{
			"condition": bestCondition,
			"distance":  bestDistance,
		}).Debug("Classified condition by edit distance")
		return bestCondition, true
	}

	return "", false
}

func headWord(phrase string) string {
	fields := strings.Fields(strings.ToLower(phrase))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
