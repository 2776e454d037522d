package service

import (
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/domain"
)

// Triage is the top-level entry point. It owns the dialogue state machine
// for conversational intake and a stateless Evaluate path for callers that
// collected the WWHAM slots themselves. Evaluate is deterministic, so its
// results are memoised in a bounded LRU keyed by the serialised payload.
type Triage struct {
	logger   *logrus.Logger
	store    *dataset.Store
	dialogue *Dialogue
	gate     *SafetyGate
	rules    *RuleEngine
	memo     *lru.Cache[string, *domain.Recommendation]
}

// NewTriage builds the full decision pipeline over a loaded dataset store.
// Store readiness is a construction precondition; there is no degraded mode.
func NewTriage(logger *logrus.Logger, store *dataset.Store, memoSize int) (*Triage, error) {
	if memoSize <= 0 {
		memoSize = 256
	}
	memo, err := lru.New[string, *domain.Recommendation](memoSize)
	if err != nil {
		return nil, err
	}
	return &Triage{
		logger:   logger,
		store:    store,
		dialogue: NewDialogue(logger, store),
		gate:     NewSafetyGate(logger, store),
		rules:    NewRuleEngine(logger, store),
		memo:     memo,
	}, nil
}

// Greeting returns the opening prompt for a new conversation state.
func (t *Triage) Greeting(st *domain.ConversationState) *domain.TurnResult {
	return t.dialogue.Greeting(st)
}

// Advance feeds one user turn into the conversation.
func (t *Triage) Advance(st *domain.ConversationState, text string) *domain.TurnResult {
	return t.dialogue.Advance(st, text)
}

// ConditionNames lists the display names of every usable condition.
func (t *Triage) ConditionNames() []string {
	return t.store.ConditionNames()
}

// Evaluate runs the safety gate, rule engine and assembler over an already
// collected payload. The condition must resolve; everything else is optional
// and absent fields simply disable their checks.
func (t *Triage) Evaluate(payload domain.EvaluatePayload) (*domain.Recommendation, error) {
	if payload.Condition == "" {
		return nil, domain.NewTriageError(domain.ErrInvalidInput, "condition is required")
	}
	if payload.Who != "" && !payload.Who.IsValid() {
		return nil, domain.NewTriageErrorf(domain.ErrInvalidInput, "unknown who category %q", payload.Who)
	}
	if payload.Duration != "" && !payload.Duration.IsValid() {
		return nil, domain.NewTriageErrorf(domain.ErrInvalidInput, "unknown duration bucket %q", payload.Duration)
	}

	cond, ok := t.store.Condition(payload.Condition)
	if !ok {
		return nil, domain.NewTriageErrorf(domain.ErrUnknownCondition, "unknown condition %q", payload.Condition)
	}

	key, err := json.Marshal(payload)
	if err == nil {
		if cached, hit := t.memo.Get(string(key)); hit {
			return cloneRecommendation(cached), nil
		}
	}

	slots := domain.Slots{
		Who:         payload.Who,
		Condition:   payload.Condition,
		Duration:    payload.Duration,
		ActionTaken: payload.ActionTaken,
		CurrentMeds: payload.CurrentMeds,
	}
	flags := t.gate.Check(cond, payload.OtherAnswers, slots)

	profile := payload.Who.Profile()
	rr := t.rules.Evaluate(cond, profile, payload.CurrentMeds, payload.OtherAnswers)

	rec := Assemble(cond, rr, flags)

	if err == nil {
		t.memo.Add(string(key), rec)
	}

	t.logger.WithFields(logrus.Fields{
		"condition": cond.ID,
		"who":       payload.Who,
		"vetoed":    rec.Vetoed(),
		"advice":    len(rec.Advice),
	}).Debug("Evaluated triage payload")

	return cloneRecommendation(rec), nil
}

// cloneRecommendation copies the result so callers can never mutate a
// memoised entry through the returned slices.
func cloneRecommendation(rec *domain.Recommendation) *domain.Recommendation {
	out := &domain.Recommendation{
		Title:    rec.Title,
		Advice:   append([]domain.MedicationOption{}, rec.Advice...),
		SelfCare: append([]string{}, rec.SelfCare...),
		Cautions: append([]string{}, rec.Cautions...),
		Flags:    append([]string{}, rec.Flags...),
	}
	return out
}
