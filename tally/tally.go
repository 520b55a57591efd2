// Package tally counts, per sender, how many messages arrived and how many
// of them were read.
//
// Aggregate is a left fold of Merge over Classify. Merge is associative and
// commutative with Tally{} as identity, so the result does not depend on the
// order messages arrive in.
package tally

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bassamadnan/mailtally/mailbox"
)

// Tally summarizes the messages from one sender. Opened never exceeds Count.
type Tally struct {
	Count  int
	Opened int
}

// Report maps a sender address to its tally.
type Report map[string]Tally

// Classify returns the tally contributed by a single message.
func Classify(m mailbox.Message) Tally {
	t := Tally{Count: 1}
	if m.Read {
		t.Opened = 1
	}
	return t
}

// Merge sums two tallies.
func Merge(a, b Tally) Tally {
	return Tally{
		Count:  a.Count + b.Count,
		Opened: a.Opened + b.Opened,
	}
}

// Accepts reports whether m carries a sender and so counts toward a report.
func Accepts(m mailbox.Message) bool {
	return senderKey(m) != ""
}

func senderKey(m mailbox.Message) string {
	return strings.TrimSpace(m.From)
}

// Aggregate folds msgs into a report. Messages without a sender are skipped.
// A nil or empty input yields an empty, non-nil report.
func Aggregate(msgs []mailbox.Message) Report {
	report := make(Report)
	for _, m := range msgs {
		sender := senderKey(m)
		if sender == "" {
			continue
		}
		report[sender] = Merge(report[sender], Classify(m))
	}
	return report
}

// Skipped returns how many of msgs Aggregate leaves out.
func Skipped(msgs []mailbox.Message) int {
	n := 0
	for _, m := range msgs {
		if !Accepts(m) {
			n++
		}
	}
	return n
}

// Senders returns the report's senders in ascending order.
func (r Report) Senders() []string {
	senders := make([]string, 0, len(r))
	for s := range r {
		senders = append(senders, s)
	}
	sort.Strings(senders)
	return senders
}

// Total merges every tally in the report.
func (r Report) Total() Tally {
	var total Tally
	for _, t := range r {
		total = Merge(total, t)
	}
	return total
}

// Lines renders one summary line per sender, sorted by sender.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r))
	for _, s := range r.Senders() {
		lines = append(lines, Line(s, r[s]))
	}
	return lines
}

// Line renders a single sender's summary.
func Line(sender string, t Tally) string {
	return fmt.Sprintf("%s count: %d opened: %d", sender, t.Count, t.Opened)
}
