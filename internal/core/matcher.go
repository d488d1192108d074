package core

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// DefaultMaxUtteranceRunes bounds how much of an utterance is scanned.
const DefaultMaxUtteranceRunes = 2000

// DefaultRuleName is reported by Match when no rule matched.
const DefaultRuleName = "default"

// RandSource picks an index in [0, n). Tests inject a fixed source.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewRandSource returns the auto-seeded process-wide source.
func NewRandSource() RandSource { return globalRand{} }

type KeywordRule struct {
	Name     string
	Keywords []string
	Replies  []string
}

// Match is the outcome of matching one utterance.
type Match struct {
	Rule  string // rule name, or DefaultRuleName
	Reply string
}

func (m Match) IsDefault() bool { return m.Rule == DefaultRuleName }

// Matcher maps free text to a canned reply. The rule table is copied at
// construction and never changes afterwards.
type Matcher struct {
	rules    []KeywordRule
	defaults []string
	rnd      RandSource
	maxRunes int
}

type MatcherOption func(*Matcher)

func WithRandSource(r RandSource) MatcherOption {
	return func(m *Matcher) { m.rnd = r }
}

func WithMaxUtteranceRunes(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.maxRunes = n
		}
	}
}

func NewMatcher(rules []KeywordRule, defaults []string, opts ...MatcherOption) (*Matcher, error) {
	if len(defaults) == 0 {
		return nil, errors.New("matcher needs at least one default reply")
	}
	if err := validReplies(defaults); err != nil {
		return nil, fmt.Errorf("default replies: %w", err)
	}

	copied := make([]KeywordRule, 0, len(rules))
	for i, r := range rules {
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s) has no keywords", i, r.Name)
		}
		if len(r.Replies) == 0 {
			return nil, fmt.Errorf("rule %d (%s) has no replies", i, r.Name)
		}
		for _, kw := range r.Keywords {
			if kw == "" || kw != strings.ToLower(kw) {
				return nil, fmt.Errorf("rule %d (%s) keyword %q must be non-empty lowercase", i, r.Name, kw)
			}
		}
		if err := validReplies(r.Replies); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
		copied = append(copied, KeywordRule{
			Name:     r.Name,
			Keywords: append([]string(nil), r.Keywords...),
			Replies:  append([]string(nil), r.Replies...),
		})
	}

	m := &Matcher{
		rules:    copied,
		defaults: append([]string(nil), defaults...),
		rnd:      NewRandSource(),
		maxRunes: DefaultMaxUtteranceRunes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func validReplies(replies []string) error {
	for _, r := range replies {
		if strings.TrimSpace(r) == "" {
			return errors.New("empty reply")
		}
	}
	return nil
}

// Reply returns the reply text for utterance.
func (m *Matcher) Reply(utterance string) string {
	return m.Match(utterance).Reply
}

// Match scans the rules in table order. The first rule with any keyword
// contained in the lowercased input wins, regardless of how many keywords
// later rules would match.
func (m *Matcher) Match(utterance string) Match {
	text := strings.ToLower(truncateRunes(utterance, m.maxRunes))
	for _, rule := range m.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return Match{Rule: rule.Name, Reply: m.pick(rule.Replies)}
			}
		}
	}
	return Match{Rule: DefaultRuleName, Reply: m.pick(m.defaults)}
}

func (m *Matcher) pick(replies []string) string {
	i := m.rnd.IntN(len(replies))
	if i < 0 || i >= len(replies) {
		i = 0
	}
	return replies[i]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
