package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/otc-triage-server/internal/domain"
)

// Slot parsing and normalisation for the WWHAM dialogue. Every parser is a
// pure function over the raw reply: it either produces the canonical stored
// value or reports failure so the question is asked again.

type whoPattern struct {
	category domain.WhoCategory
	patterns []string
}

// Ordered most-specific first so "pregnant" never falls through to "adult".
var whoPatterns = []whoPattern{
	{domain.WhoPregnant, []string{"pregnant", "pregnancy", "expecting"}},
	{domain.WhoBreastfeeding, []string{"breastfeeding", "breast feeding", "breast-feeding", "nursing", "lactating"}},
	{domain.WhoInfant, []string{"infant", "baby", "newborn", "under 1"}},
	{domain.WhoToddler, []string{"toddler", "1 year", "2 year", "3 year", "4 year", "little one"}},
	{domain.WhoChild, []string{"child", "kid", "son", "daughter", "5 year", "6 year", "7 year", "8 year", "9 year", "10 year", "11 year", "12 year"}},
	{domain.WhoTeen, []string{"teen", "teenager", "13", "14", "15", "16", "17"}},
	{domain.WhoAdult, []string{"adult", "grown up", "grown-up", "myself", "for me", "it's me", "its me"}},
}

// ParseWho normalises a reply to one of the seven who categories.
func ParseWho(text string) (domain.WhoCategory, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return "", false
	}
	if cat := domain.WhoCategory(lowered); cat.IsValid() {
		return cat, true
	}
	for _, wp := range whoPatterns {
		for _, p := range wp.patterns {
			if strings.Contains(lowered, p) {
				return wp.category, true
			}
		}
	}
	return "", false
}

var (
	durationNumberRe = regexp.MustCompile(`(\d+)\s*(hour|hr|day|week|month)s?`)

	recurrentPhrases = []string{"recurrent", "recurring", "on and off", "keeps coming back", "keep coming back", "comes and goes", "frequent"}
	under24hPhrases  = []string{"< 24 hours", "today", "this morning", "few hours", "last night", "since yesterday", "yesterday"}
	oneToThreePhrase = []string{"1–3 days", "1-3 days", "couple of days", "couple days", "few days"}
	fourToSevenPhras = []string{"4–7 days", "4-7 days", "about a week", "nearly a week", "almost a week"}
	overSevenPhrases = []string{"> 7 days", "over a week", "more than a week", "two weeks", "fortnight", "for weeks", "for months", "a month", "long time"}
)

// ParseDuration normalises free text into one of the five canonical buckets.
// Bucketing is boundary-exact: 3 days is "1–3 days", 4 and 7 days are
// "4–7 days", 8 days is "> 7 days". Unparseable text reports failure and the
// question is re-asked.
func ParseDuration(text string) (domain.DurationBucket, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return "", false
	}

	// Canonical echoes first: suggestion chips send the bucket text back.
	if b := domain.DurationBucket(strings.TrimSpace(text)); b.IsValid() {
		return b, true
	}
	if strings.Contains(lowered, "recurrent / frequent") {
		return domain.DurationRecurrent, true
	}

	// Explicit recurring language outranks any numeric mention.
	for _, p := range recurrentPhrases {
		if strings.Contains(lowered, p) {
			return domain.DurationRecurrent, true
		}
	}

	if m := durationNumberRe.FindStringSubmatch(lowered); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch unit := m[2]; unit {
		case "hour", "hr":
			return domain.DurationUnder24h, true
		case "day":
			switch {
			case n == 0:
				return domain.DurationUnder24h, true
			case n <= 3:
				return domain.Duration1To3Days, true
			case n <= 7:
				return domain.Duration4To7Days, true
			default:
				return domain.DurationOver7Days, true
			}
		case "week":
			if n <= 1 {
				return domain.Duration4To7Days, true
			}
			return domain.DurationOver7Days, true
		case "month":
			return domain.DurationOver7Days, true
		}
	}

	for _, p := range under24hPhrases {
		if strings.Contains(lowered, p) {
			return domain.DurationUnder24h, true
		}
	}
	for _, p := range oneToThreePhrase {
		if strings.Contains(lowered, p) {
			return domain.Duration1To3Days, true
		}
	}
	for _, p := range fourToSevenPhras {
		if strings.Contains(lowered, p) {
			return domain.Duration4To7Days, true
		}
	}
	for _, p := range overSevenPhrases {
		if strings.Contains(lowered, p) {
			return domain.DurationOver7Days, true
		}
	}

	return "", false
}

var nonePatterns = []string{"none", "nothing", "haven't tried", "havent tried", "haven't taken", "havent taken", "no medicine", "no medication", "no meds", "not taking"}

// ParseFreeform normalises the action-taken and current-meds answers: any
// denial collapses to "none", anything else is stored lowercased as given.
func ParseFreeform(text string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return "", false
	}
	for _, p := range nonePatterns {
		if strings.Contains(lowered, p) {
			return "none", true
		}
	}
	if lowered == "no" {
		return "none", true
	}
	return lowered, true
}
