package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/domain"
	"github.com/otc-triage-server/pkg/textmatch"
)

// SafetyGate scans the accumulated free text and slot values for escalation
// triggers. Every predicate is evaluated (no short-circuit) so concurrent
// flags surface together. A non-empty result is an absolute veto downstream:
// the assembler drops all medication advice when any flag is present.
type SafetyGate struct {
	logger         *logrus.Logger
	emergencyFlags []domain.RedFlag
}

// NewSafetyGate creates a gate over the loaded catalogue. The emergency set
// is checked for every condition in addition to the condition's own flags.
func NewSafetyGate(logger *logrus.Logger, store *dataset.Store) *SafetyGate {
	return &SafetyGate{
		logger:         logger,
		emergencyFlags: store.EmergencyFlags(),
	}
}

// Check returns the display texts of every matched red flag for the
// condition, in flag declaration order, condition-scoped flags first.
// Pattern matches within a negation window ("no blood in stool") are
// suppressed per occurrence.
func (g *SafetyGate) Check(cond *domain.Condition, freeText string, slots domain.Slots) []string {
	lowered := strings.ToLower(freeText)

	matched := make([]string, 0)
	seen := make(map[string]struct{})

	flags := make([]domain.RedFlag, 0, len(cond.RedFlags)+len(g.emergencyFlags))
	flags = append(flags, cond.RedFlags...)
	flags = append(flags, g.emergencyFlags...)

	for _, rf := range flags {
		if !g.flagTriggered(rf, lowered, slots) {
			continue
		}
		if _, dup := seen[rf.Text]; dup {
			continue
		}
		seen[rf.Text] = struct{}{}
		matched = append(matched, rf.Text)
		g.logger.WithFields(logrus.Fields{
			"condition": cond.ID,
			"red_flag":  rf.ID,
		}).Info("Red flag triggered")
	}

	return matched
}

func (g *SafetyGate) flagTriggered(rf domain.RedFlag, lowered string, slots domain.Slots) bool {
	for _, pattern := range rf.Patterns {
		if textmatch.ContainsUnnegated(lowered, pattern) {
			return true
		}
	}
	if rf.DurationIs != "" && slots.Duration == rf.DurationIs {
		return true
	}
	for _, who := range rf.WhoAny {
		if slots.Who == who {
			return true
		}
	}
	return false
}
