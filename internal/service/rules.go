package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/domain"
)

// RuleEngine filters a condition's medication options against the patient
// profile and the stated medication/condition text. Pure with respect to its
// inputs: identical arguments always yield identical output, so results can
// be memoised.
type RuleEngine struct {
	logger      *logrus.Logger
	globalRules []domain.GlobalRule
}

// RuleResult is the engine output: the surviving options in declaration
// order, deduplicated by display name, plus every caution accumulated along
// the way (from rejected options too). Dedup of cautions is the assembler's
// job.
type RuleResult struct {
	Advice   []domain.MedicationOption
	Cautions []string
}

// NewRuleEngine creates a rule engine over the loaded catalogue.
func NewRuleEngine(logger *logrus.Logger, store *dataset.Store) *RuleEngine {
	return &RuleEngine{
		logger:      logger,
		globalRules: store.GlobalRules(),
	}
}

// Evaluate runs the four checks against every option of the condition in
// declaration order: age limits, pregnancy/breastfeeding suitability,
// contraindicated terms in the stated meds/conditions text, then the
// cross-cutting global rules. An option survives only if it passes all four.
func (e *RuleEngine) Evaluate(cond *domain.Condition, profile domain.PatientProfile, currentMeds, otherConditions string) RuleResult {
	medsText := strings.ToLower(currentMeds)
	conditionsText := strings.ToLower(otherConditions)
	statedText := medsText + " " + conditionsText

	result := RuleResult{
		Advice:   make([]domain.MedicationOption, 0, len(cond.Options)),
		Cautions: make([]string, 0),
	}
	offered := make(map[string]struct{})

	for _, opt := range cond.Options {
		ok := true

		// 1. Age limits. The limit note is informational and surfaces
		// whether or not the option survives.
		if profile.AgeKnown {
			limits := opt.AgeLimits
			if limits.MinYears != nil && profile.AgeYears < *limits.MinYears {
				ok = false
				result.Cautions = append(result.Cautions,
					fmt.Sprintf("%s is not suitable under %g years.", opt.ClassName, *limits.MinYears))
			}
			if limits.MaxYears != nil && profile.AgeYears > *limits.MaxYears {
				ok = false
				result.Cautions = append(result.Cautions,
					fmt.Sprintf("%s is not suitable over %g years.", opt.ClassName, *limits.MaxYears))
			}
			if limits.Note != "" {
				result.Cautions = append(result.Cautions, limits.Note)
			}
		}

		// 2. Pregnancy and breastfeeding suitability.
		if profile.Pregnant && opt.Pregnancy != nil {
			if opt.Pregnancy.Suitability == domain.SuitabilityAvoid {
				ok = false
			}
			if opt.Pregnancy.Suitability != domain.SuitabilityAllow {
				result.Cautions = append(result.Cautions, guidanceNote(opt.Pregnancy, "Check suitability in pregnancy."))
			}
		}
		if profile.Breastfeeding && opt.Breastfeeding != nil {
			if opt.Breastfeeding.Suitability == domain.SuitabilityAvoid {
				ok = false
			}
			if opt.Breastfeeding.Suitability != domain.SuitabilityAllow {
				result.Cautions = append(result.Cautions, guidanceNote(opt.Breastfeeding, "Check suitability while breastfeeding."))
			}
		}

		// 3. Contraindicated terms in the stated meds/conditions text.
		for _, term := range opt.Contraindications {
			if term == "" {
				continue
			}
			if strings.Contains(statedText, strings.ToLower(term)) {
				ok = false
				result.Cautions = append(result.Cautions,
					fmt.Sprintf("%s is unsuitable with %s.", opt.ClassName, term))
			}
		}

		// 4. Global rules.
		for _, rule := range e.globalRules {
			if !ruleApplies(rule, opt) {
				continue
			}
			if criteriaMatch(rule.Criteria, profile, medsText, conditionsText) {
				ok = false
				result.Cautions = append(result.Cautions, rule.Reason)
			}
		}

		if !ok {
			continue
		}
		if _, dup := offered[opt.ClassName]; dup {
			continue
		}
		offered[opt.ClassName] = struct{}{}
		result.Advice = append(result.Advice, opt)
	}

	e.logger.WithFields(logrus.Fields{
		"condition": cond.ID,
		"options":   len(cond.Options),
		"offered":   len(result.Advice),
		"cautions":  len(result.Cautions),
	}).Debug("Evaluated eligibility rules")

	return result
}

// ruleApplies checks whether the rule's applies_to set intersects the
// option's class id or any of its member head tokens ("Loperamide 2mg
// capsules" matches "loperamide").
func ruleApplies(rule domain.GlobalRule, opt domain.MedicationOption) bool {
	for _, target := range rule.AppliesTo {
		if target == opt.ClassID {
			return true
		}
		for _, member := range opt.Members {
			fields := strings.Fields(strings.ToLower(member))
			if len(fields) > 0 && fields[0] == strings.ToLower(target) {
				return true
			}
		}
	}
	return false
}

// criteriaMatch reports whether any single criterion matches; one match is
// enough to reject.
func criteriaMatch(c domain.RuleCriteria, profile domain.PatientProfile, medsText, conditionsText string) bool {
	if c.AgeLtYears != nil && profile.AgeKnown && profile.AgeYears < *c.AgeLtYears {
		return true
	}
	if c.Pregnant && profile.Pregnant {
		return true
	}
	if c.Breastfeeding && profile.Breastfeeding {
		return true
	}
	for _, term := range c.MedsAny {
		if term != "" && strings.Contains(medsText, strings.ToLower(term)) {
			return true
		}
	}
	for _, term := range c.ConditionsAny {
		if term != "" && strings.Contains(conditionsText, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func guidanceNote(g *domain.UseGuidance, fallback string) string {
	if g.Note != "" {
		return g.Note
	}
	return fallback
}
