package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/domain"
)

// Dialogue is the WWHAM state machine. Each Advance call processes exactly
// one user turn and returns either the next prompt or a terminal
// recommendation; the caller delivers the next turn (return-and-resume).
// There is no timing or presentation concern in here: the decision step is
// synchronous and pure apart from the state it owns.
type Dialogue struct {
	logger     *logrus.Logger
	store      *dataset.Store
	classifier *Classifier
	gate       *SafetyGate
	rules      *RuleEngine
}

// NewDialogue wires the state machine to the classifier, safety gate and
// rule engine over one loaded catalogue.
func NewDialogue(logger *logrus.Logger, store *dataset.Store) *Dialogue {
	return &Dialogue{
		logger:     logger,
		store:      store,
		classifier: NewClassifier(logger, store),
		gate:       NewSafetyGate(logger, store),
		rules:      NewRuleEngine(logger, store),
	}
}

const (
	greetingPrompt = "Hi! I can help with over-the-counter medicine advice for minor ailments. Tell me what's bothering you in your own words."
	restartPrompt  = "This consultation is finished. Start a new one to check something else."

	questionWho      = "Who is this for?"
	questionDuration = "How long has this been going on?"
	questionAction   = "What have you already tried for it?"
	questionMeds     = "Are any other medicines being taken at the moment?"

	retryPrefix = "Sorry, I didn't catch that. "
)

var (
	actionHints = []string{"none", "rest", "fluids", "paracetamol", "antacid"}
	medsHints   = []string{"none", "ibuprofen", "antihistamine", "paracetamol"}
)

// Greeting returns the opening prompt for a fresh conversation.
func (d *Dialogue) Greeting(st *domain.ConversationState) *domain.TurnResult {
	return &domain.TurnResult{Prompt: greetingPrompt}
}

// Advance processes one user turn. Validation failures re-ask the same
// question without advancing the step; once the state is terminal the slots
// are frozen and the stored recommendation is returned unchanged.
func (d *Dialogue) Advance(st *domain.ConversationState, text string) *domain.TurnResult {
	text = strings.TrimSpace(text)

	if st.Step.Terminal() {
		return &domain.TurnResult{Prompt: restartPrompt, Recommendation: st.Result, Done: true}
	}
	if text == "" {
		return d.reAsk(st, "")
	}

	st.AppendFreeText(text)

	d.logger.WithFields(logrus.Fields{
		"session": st.ID,
		"step":    st.Step,
	}).Debug("Processing conversation turn")

	switch st.Step {
	case domain.StepSafetyCheck:
		return d.finish(st)

	case domain.StepClarify:
		if id, ok := d.classifier.Classify(text); ok {
			st.Slots.Condition = id
			return d.askNext(st)
		}
		return d.clarify(st, "Sorry, I still couldn't match that to something I can help with. ")

	case domain.StepCollectingWho:
		who, ok := ParseWho(text)
		if !ok {
			d.fillOpportunistic(st, text)
			return d.reAsk(st, retryPrefix)
		}
		st.Slots.Who = who

	case domain.StepCollectingCondition:
		id, ok := d.classifier.Classify(text)
		if !ok {
			// Never guess: offer the full list and wait for one
			// disambiguating reply before resuming.
			return d.clarify(st, "")
		}
		st.Slots.Condition = id

	case domain.StepCollectingDuration:
		dur, ok := ParseDuration(text)
		if !ok {
			d.fillOpportunistic(st, text)
			return d.reAsk(st, retryPrefix)
		}
		st.Slots.Duration = dur

	case domain.StepCollectingAction:
		action, ok := ParseFreeform(text)
		if !ok {
			return d.reAsk(st, retryPrefix)
		}
		st.Slots.ActionTaken = action

	case domain.StepCollectingMeds:
		meds, ok := ParseFreeform(text)
		if !ok {
			return d.reAsk(st, retryPrefix)
		}
		st.Slots.CurrentMeds = meds
	}

	d.fillOpportunistic(st, text)
	return d.askNext(st)
}

// fillOpportunistic captures condition and duration from any free-text turn,
// so their collecting states can be skipped. Who, action and meds are always
// asked explicitly.
func (d *Dialogue) fillOpportunistic(st *domain.ConversationState, text string) {
	if st.Slots.Condition == "" {
		if id, ok := d.classifier.Classify(text); ok {
			st.Slots.Condition = id
			d.logger.WithFields(logrus.Fields{
				"session":   st.ID,
				"condition": id,
			}).Debug("Captured condition from free text")
		}
	}
	if st.Slots.Duration == "" {
		if dur, ok := ParseDuration(text); ok {
			st.Slots.Duration = dur
		}
	}
}

// askNext re-evaluates the remaining missing slots after every turn rather
// than hard-coding the position, then moves to the first unmet one in WWHAM
// order. With all slots met it runs the safety-check question.
func (d *Dialogue) askNext(st *domain.ConversationState) *domain.TurnResult {
	switch {
	case st.Slots.Who == "":
		st.Step = domain.StepCollectingWho
	case st.Slots.Condition == "":
		st.Step = domain.StepCollectingCondition
	case st.Slots.Duration == "":
		st.Step = domain.StepCollectingDuration
	case st.Slots.ActionTaken == "":
		st.Step = domain.StepCollectingAction
	case st.Slots.CurrentMeds == "":
		st.Step = domain.StepCollectingMeds
	default:
		st.Step = domain.StepSafetyCheck
		cond, _ := d.store.Condition(st.Slots.Condition)
		prompt := "Any other symptoms that worry you?"
		if cond != nil && cond.SafetyPrompt != "" {
			prompt = cond.SafetyPrompt
		}
		return &domain.TurnResult{Prompt: prompt, OptionsHint: []string{"no", "none of those"}}
	}
	return d.question(st, "")
}

// reAsk repeats the current question without advancing the step.
func (d *Dialogue) reAsk(st *domain.ConversationState, prefix string) *domain.TurnResult {
	switch st.Step {
	case domain.StepGreeting:
		return &domain.TurnResult{Prompt: greetingPrompt}
	case domain.StepClarify:
		return d.clarify(st, prefix)
	case domain.StepSafetyCheck:
		cond, _ := d.store.Condition(st.Slots.Condition)
		prompt := "Any other symptoms that worry you?"
		if cond != nil && cond.SafetyPrompt != "" {
			prompt = cond.SafetyPrompt
		}
		return &domain.TurnResult{Prompt: prefix + prompt}
	default:
		return d.question(st, prefix)
	}
}

// question emits the current slot's question with its suggestion hints.
func (d *Dialogue) question(st *domain.ConversationState, prefix string) *domain.TurnResult {
	switch st.Step {
	case domain.StepCollectingWho:
		hints := make([]string, 0, len(domain.AllWhoCategories()))
		for _, cat := range domain.AllWhoCategories() {
			hints = append(hints, cat.String())
		}
		return &domain.TurnResult{Prompt: prefix + questionWho, OptionsHint: hints}
	case domain.StepCollectingCondition:
		return &domain.TurnResult{
			Prompt:      prefix + "What's the main problem you're dealing with?",
			OptionsHint: d.store.ConditionNames(),
		}
	case domain.StepCollectingDuration:
		hints := make([]string, 0, len(domain.AllDurationBuckets()))
		for _, bucket := range domain.AllDurationBuckets() {
			hints = append(hints, bucket.String())
		}
		return &domain.TurnResult{Prompt: prefix + questionDuration, OptionsHint: hints}
	case domain.StepCollectingAction:
		return &domain.TurnResult{Prompt: prefix + questionAction, OptionsHint: actionHints}
	case domain.StepCollectingMeds:
		return &domain.TurnResult{Prompt: prefix + questionMeds, OptionsHint: medsHints}
	default:
		return &domain.TurnResult{Prompt: prefix + questionWho}
	}
}

// clarify offers the full condition name list and waits for one more reply.
func (d *Dialogue) clarify(st *domain.ConversationState, prefix string) *domain.TurnResult {
	st.Step = domain.StepClarify
	return &domain.TurnResult{
		Prompt:      prefix + "I want to make sure I understood. Which of these is closest to the problem?",
		OptionsHint: d.store.ConditionNames(),
	}
}

// finish runs the safety gate and the rule engine over the completed intake
// and freezes the state with the assembled recommendation.
func (d *Dialogue) finish(st *domain.ConversationState) *domain.TurnResult {
	cond, ok := d.store.Condition(st.Slots.Condition)
	if !ok {
		// The condition slot no longer resolves; re-clarify instead of
		// guessing.
		return d.clarify(st, "")
	}

	flags := d.gate.Check(cond, st.FreeText, st.Slots)
	st.Flags = append(st.Flags, flags...)

	profile := st.Slots.Who.Profile()
	rr := d.rules.Evaluate(cond, profile, st.Slots.CurrentMeds, st.FreeText)
	rr.Cautions = append(append([]string{}, st.Cautions...), rr.Cautions...)

	rec := Assemble(cond, rr, st.Flags)
	st.Result = rec
	st.Step = domain.StepDone

	d.logger.WithFields(logrus.Fields{
		"session":   st.ID,
		"condition": cond.ID,
		"vetoed":    rec.Vetoed(),
		"advice":    len(rec.Advice),
		"flags":     len(rec.Flags),
	}).Info("Completed triage conversation")

	return &domain.TurnResult{Recommendation: rec, Done: true}
}
