// Package domain contains the core entities for over-the-counter triage:
// the condition catalogue, patient profile, WWHAM conversation state and the
// recommendation produced at the end of an intake.
//
// WWHAM (Who / What / How long / Action taken / Medication) is the fixed
// question sequence used in pharmacy counter triage.
package domain

// ConditionID identifies one condition in the catalogue.
type ConditionID string

// WhoCategory is the closed set of answers to the "who is this for" question.
// Categories map to a representative age through Profile; free text never
// reaches the eligibility engine.
type WhoCategory string

const (
	WhoAdult         WhoCategory = "adult"
	WhoTeen          WhoCategory = "teen 13–17"
	WhoChild         WhoCategory = "child 5–12"
	WhoToddler       WhoCategory = "toddler 1–4"
	WhoInfant        WhoCategory = "infant <1"
	WhoPregnant      WhoCategory = "pregnant"
	WhoBreastfeeding WhoCategory = "breastfeeding"
)

// AllWhoCategories returns the categories in presentation order.
func AllWhoCategories() []WhoCategory {
	return []WhoCategory{
		WhoAdult, WhoTeen, WhoChild, WhoToddler,
		WhoInfant, WhoPregnant, WhoBreastfeeding,
	}
}

// IsValid reports whether the category is one of the seven known answers.
func (w WhoCategory) IsValid() bool {
	switch w {
	case WhoAdult, WhoTeen, WhoChild, WhoToddler, WhoInfant, WhoPregnant, WhoBreastfeeding:
		return true
	default:
		return false
	}
}

func (w WhoCategory) String() string {
	return string(w)
}

// Profile derives the patient profile for eligibility checks. The mapping is
// fixed: each category stands in for a representative age. Unknown categories
// yield a profile with no known age, which disables age-based checks.
func (w WhoCategory) Profile() PatientProfile {
	switch w {
	case WhoAdult:
		return PatientProfile{AgeYears: 30, AgeKnown: true}
	case WhoTeen:
		return PatientProfile{AgeYears: 15, AgeKnown: true}
	case WhoChild:
		return PatientProfile{AgeYears: 8, AgeKnown: true}
	case WhoToddler:
		return PatientProfile{AgeYears: 3, AgeKnown: true}
	case WhoInfant:
		return PatientProfile{AgeYears: 0.5, AgeKnown: true}
	case WhoPregnant:
		return PatientProfile{AgeYears: 30, AgeKnown: true, Pregnant: true}
	case WhoBreastfeeding:
		return PatientProfile{AgeYears: 30, AgeKnown: true, Breastfeeding: true}
	default:
		return PatientProfile{}
	}
}

// DurationBucket is the canonical "how long" answer. Free-text durations are
// normalised into one of these five buckets before they are stored.
type DurationBucket string

const (
	DurationUnder24h  DurationBucket = "< 24 hours"
	Duration1To3Days  DurationBucket = "1–3 days"
	Duration4To7Days  DurationBucket = "4–7 days"
	DurationOver7Days DurationBucket = "> 7 days"
	DurationRecurrent DurationBucket = "Recurrent / frequent"
)

// AllDurationBuckets returns the buckets in ascending order.
func AllDurationBuckets() []DurationBucket {
	return []DurationBucket{
		DurationUnder24h, Duration1To3Days, Duration4To7Days,
		DurationOver7Days, DurationRecurrent,
	}
}

// IsValid reports whether the bucket is one of the five canonical values.
func (d DurationBucket) IsValid() bool {
	switch d {
	case DurationUnder24h, Duration1To3Days, Duration4To7Days, DurationOver7Days, DurationRecurrent:
		return true
	default:
		return false
	}
}

func (d DurationBucket) String() string {
	return string(d)
}

// PatientProfile is derived from the who slot on every evaluation and never
// stored. AgeKnown guards AgeYears; an unknown age skips age checks rather
// than failing them.
type PatientProfile struct {
	AgeYears      float64 `json:"age_years"`
	AgeKnown      bool    `json:"age_known"`
	Pregnant      bool    `json:"pregnant"`
	Breastfeeding bool    `json:"breastfeeding"`
}

// Suitability grades an option for pregnancy or breastfeeding.
type Suitability string

const (
	SuitabilityAllow   Suitability = "allow"
	SuitabilityCaution Suitability = "caution"
	SuitabilityAvoid   Suitability = "avoid"
)

// UseGuidance pairs a suitability grade with its user-facing note.
type UseGuidance struct {
	Suitability Suitability `json:"suitability"`
	Note        string      `json:"note,omitempty"`
}

// AgeLimits bounds an option to an age range. Either bound is optional; a
// note, when present, is surfaced as a caution whenever the age is known.
type AgeLimits struct {
	MinYears *float64 `json:"min_years,omitempty"`
	MaxYears *float64 `json:"max_years,omitempty"`
	Note     string   `json:"note,omitempty"`
}

// MedicationOption is one medication class offered for a condition.
// Immutable reference data owned by the dataset store.
type MedicationOption struct {
	ClassID           string       `json:"class_id"`
	ClassName         string       `json:"class_name"`
	Members           []string     `json:"members_examples,omitempty"`
	AgeLimits         AgeLimits    `json:"age_limits"`
	Pregnancy         *UseGuidance `json:"pregnancy,omitempty"`
	Breastfeeding     *UseGuidance `json:"breastfeeding,omitempty"`
	Contraindications []string     `json:"contraindications,omitempty"`
	Dosage            string       `json:"dosage,omitempty"`
	Description       string       `json:"description,omitempty"`
}

// RedFlag is one escalation trigger scoped to a condition (or, for the
// emergency set, to every condition). A flag fires on any unnegated pattern
// occurrence in the accumulated free text, or when a slot trigger matches.
type RedFlag struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Patterns   []string       `json:"patterns,omitempty"`
	DurationIs DurationBucket `json:"duration_is,omitempty"`
	WhoAny     []WhoCategory  `json:"who_any,omitempty"`
}

// Condition is one catalogue entry: how to recognise it, when to escalate,
// what can be offered and the default self-care advice.
type Condition struct {
	ID              ConditionID        `json:"id"`
	Name            string             `json:"name"`
	SymptomKeywords []string           `json:"symptom_keywords"`
	SafetyPrompt    string             `json:"safety_prompt,omitempty"`
	RedFlags        []RedFlag          `json:"red_flags,omitempty"`
	Options         []MedicationOption `json:"options"`
	DefaultSelfCare []string           `json:"default_self_care,omitempty"`
}

// RuleCriteria is the match side of a global rule. Any single criterion
// matching the profile or the stated meds/conditions text rejects the option.
type RuleCriteria struct {
	AgeLtYears    *float64 `json:"age_lt_years,omitempty"`
	Pregnant      bool     `json:"pregnant,omitempty"`
	Breastfeeding bool     `json:"breastfeeding,omitempty"`
	MedsAny       []string `json:"meds_any,omitempty"`
	ConditionsAny []string `json:"conditions_any,omitempty"`
}

// GlobalRule is a cross-cutting eligibility constraint evaluated in addition
// to per-option checks. AppliesTo holds class ids and lowercase member tokens.
type GlobalRule struct {
	ID        string       `json:"id,omitempty"`
	AppliesTo []string     `json:"applies_to"`
	Criteria  RuleCriteria `json:"criteria"`
	Reason    string       `json:"reason"`
}

// Catalogue is the document shape consumed from the dataset collaborator.
type Catalogue struct {
	Conditions     []Condition  `json:"conditions"`
	GlobalRules    []GlobalRule `json:"global_rules"`
	EmergencyFlags []RedFlag    `json:"emergency_flags,omitempty"`
}

// Recommendation is the single output object consumed by external rendering.
// Constructed fresh per evaluation and never mutated after return. A
// non-empty Flags list is an absolute veto: Advice is then always empty.
type Recommendation struct {
	Title    string             `json:"title"`
	Advice   []MedicationOption `json:"advice"`
	SelfCare []string           `json:"self_care"`
	Cautions []string           `json:"cautions"`
	Flags    []string           `json:"flags"`
}

// Vetoed reports whether the safety gate suppressed medication advice.
func (r *Recommendation) Vetoed() bool {
	return len(r.Flags) > 0
}

// EvaluatePayload is the stateless direct-evaluation input, used when the
// caller collected the WWHAM slots itself (for example a form wizard).
type EvaluatePayload struct {
	Condition    ConditionID    `json:"condition"`
	Who          WhoCategory    `json:"who"`
	Duration     DurationBucket `json:"duration,omitempty"`
	ActionTaken  string         `json:"action_taken,omitempty"`
	CurrentMeds  string         `json:"current_meds,omitempty"`
	OtherAnswers string         `json:"other_answers,omitempty"`
}

// TurnResult is what one conversation turn yields: either the next prompt
// with its suggestion chips, or a terminal recommendation.
type TurnResult struct {
	Prompt         string          `json:"prompt,omitempty"`
	OptionsHint    []string        `json:"options_hint,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Done           bool            `json:"done"`
}
