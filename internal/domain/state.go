package domain

import "time"

// Step enumerates the dialogue states. Transitions are sequential through the
// WWHAM order, except that condition and duration may be captured
// opportunistically from any free-text turn, letting their collecting states
// be skipped.
type Step string

const (
	StepGreeting            Step = "greeting"
	StepCollectingWho       Step = "collecting_who"
	StepCollectingCondition Step = "collecting_condition"
	StepCollectingDuration  Step = "collecting_duration"
	StepCollectingAction    Step = "collecting_action"
	StepCollectingMeds      Step = "collecting_meds"
	StepSafetyCheck         Step = "safety_check"
	StepClarify             Step = "clarify"
	StepDone                Step = "done"
)

func (s Step) String() string {
	return string(s)
}

// Terminal reports whether the conversation has produced its outcome. Once
// terminal, slots are frozen; only a restart (a fresh state) resumes intake.
func (s Step) Terminal() bool {
	return s == StepDone
}

// Slots holds the five WWHAM answers, each zero until filled. Values are
// stored normalised: who and duration as their canonical enum values, action
// and meds as lowercase free text ("none" when denied).
type Slots struct {
	Who         WhoCategory    `json:"who,omitempty"`
	Condition   ConditionID    `json:"condition,omitempty"`
	Duration    DurationBucket `json:"duration,omitempty"`
	ActionTaken string         `json:"action_taken,omitempty"`
	CurrentMeds string         `json:"current_meds,omitempty"`
}

// ConversationState is the only mutable state in the engine, owned by the
// dialogue state machine for the lifetime of one session. Flags and Cautions
// are append-only and never cleared mid-session.
type ConversationState struct {
	ID        string          `json:"id"`
	Step      Step            `json:"step"`
	Slots     Slots           `json:"slots"`
	FreeText  string          `json:"free_text"`
	Flags     []string        `json:"flags"`
	Cautions  []string        `json:"cautions"`
	Result    *Recommendation `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewConversationState starts a fresh session at the greeting step.
func NewConversationState(id string) *ConversationState {
	return &ConversationState{
		ID:        id,
		Step:      StepGreeting,
		Flags:     []string{},
		Cautions:  []string{},
		CreatedAt: time.Now().UTC(),
	}
}

// AppendFreeText accumulates the raw user utterance for this session.
func (s *ConversationState) AppendFreeText(text string) {
	if text == "" {
		return
	}
	if s.FreeText == "" {
		s.FreeText = text
		return
	}
	s.FreeText += " " + text
}
