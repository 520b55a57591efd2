package mailbox

import (
	"strings"

	"github.com/bassamadnan/mailtally/config"
	"github.com/bassamadnan/mailtally/logging"
	"github.com/go-kit/log/level"
)

// Filter drops messages matching the user's ignore rules.
type Filter struct {
	rules config.Filters
}

func NewFilter(rules config.Filters) *Filter {
	return &Filter{rules: rules}
}

// Ignored reports whether m matches a sender or subject rule. Matching is a
// case-insensitive substring test, so a rule may name a whole domain.
func (f *Filter) Ignored(m Message) bool {
	from := strings.ToLower(m.From)
	for _, sender := range f.rules.IgnoreSenders {
		if sender != "" && strings.Contains(from, strings.ToLower(sender)) {
			level.Debug(logging.Logger).Log("component", "filter", "msg", "ignoring message due to sender rule",
				"id", m.ID, "sender", logging.Fingerprint(m.From), "rule", sender)
			return true
		}
	}
	subject := strings.ToLower(m.Subject)
	for _, keyword := range f.rules.IgnoreKeywordsInSubject {
		if keyword != "" && strings.Contains(subject, strings.ToLower(keyword)) {
			level.Debug(logging.Logger).Log("component", "filter", "msg", "ignoring message due to keyword rule",
				"id", m.ID, "rule", keyword)
			return true
		}
	}
	return false
}

// Apply returns the messages that are not ignored, preserving order, and the
// number that were dropped.
func (f *Filter) Apply(msgs []Message) ([]Message, int) {
	kept := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if f.Ignored(m) {
			continue
		}
		kept = append(kept, m)
	}
	return kept, len(msgs) - len(kept)
}
