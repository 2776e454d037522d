package service

import "github.com/otc-triage-server/internal/domain"

// Assemble merges the rule-engine output, the safety-gate flags and the
// condition's default self-care into one Recommendation.
//
// A non-empty flag list is an absolute veto: no medication advice and no
// self-care text, regardless of what the rule engine allowed. Rule-engine
// cautions are still reported on the veto path; they are informational, not
// advice. When no flags fired and nothing survived filtering, the result is
// a well-formed empty list so the caller can render a "consult a pharmacist"
// fallback.
func Assemble(cond *domain.Condition, rr RuleResult, flags []string) *domain.Recommendation {
	rec := &domain.Recommendation{
		Title:    cond.Name,
		Advice:   []domain.MedicationOption{},
		SelfCare: []string{},
		Cautions: dedupeStrings(rr.Cautions),
		Flags:    dedupeStrings(flags),
	}

	if len(rec.Flags) > 0 {
		return rec
	}

	rec.Advice = append(rec.Advice, rr.Advice...)
	rec.SelfCare = dedupeStrings(cond.DefaultSelfCare)
	return rec
}

// dedupeStrings drops empties and duplicates while preserving first-seen
// order, which keeps output deterministic.
func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
