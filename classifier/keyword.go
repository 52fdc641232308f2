package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agentrelay/core"
)

// Rule routes a message to an agent when its pattern matches or any of its
// keywords appears (case-insensitive) in the message text. Pattern and
// Keywords may be combined; either hit selects the rule.
type Rule struct {
	Pattern  *regexp.Regexp
	Keywords []string
	Agent    string
}

// NewRule compiles a rule from a raw pattern and keyword list. Keywords are
// lowercased so matching stays case-insensitive.
func NewRule(pattern string, keywords []string, agent string) (Rule, error) {
	rule := Rule{Agent: agent}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("compiling pattern %q: %w", pattern, err)
		}
		rule.Pattern = re
	}
	for _, kw := range keywords {
		rule.Keywords = append(rule.Keywords, strings.ToLower(kw))
	}
	return rule, nil
}

func (r Rule) matches(message string) bool {
	if r.Pattern != nil && r.Pattern.MatchString(message) {
		return true
	}
	lower := strings.ToLower(message)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Keyword is a deterministic, rule-based classifier. Rules are evaluated in
// order; the first match wins. With no match the configured default name is
// returned, or core.NoMatch when none is set. It issues no external calls
// and always terminates.
type Keyword struct {
	rules       []Rule
	defaultName string
}

// NewKeyword constructs a rule-based classifier with an optional default
// agent name for unmatched messages.
func NewKeyword(rules []Rule, defaultName string) *Keyword {
	return &Keyword{rules: rules, defaultName: defaultName}
}

// Classify implements core.Classifier.
func (k *Keyword) Classify(_ context.Context, message, _ string) (string, error) {
	for _, rule := range k.rules {
		if rule.matches(message) {
			return rule.Agent, nil
		}
	}
	if k.defaultName != "" {
		return k.defaultName, nil
	}
	return core.NoMatch, nil
}
