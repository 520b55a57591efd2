// Package report writes a run's output: one line per fetched message and a
// per-sender summary.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bassamadnan/mailtally/mailbox"
	"github.com/bassamadnan/mailtally/tally"
	"github.com/charmbracelet/lipgloss"
)

const maxSubjectLen = 60

// Printer renders to a single writer.
type Printer struct {
	w      io.Writer
	styles styles
}

// NewPrinter detects the color support of w; a non-terminal writer gets plain text.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styles: newStyles(lipgloss.NewRenderer(w))}
}

// Message prints the line for one processed message.
func (p *Printer) Message(m mailbox.Message) error {
	sender := p.styles.Sender.Render(m.From)
	if m.From == "" {
		sender = p.styles.Placeholder.Render("(no sender)")
	}
	subject := p.styles.Subject.Render(truncate(m.Subject, maxSubjectLen))
	if m.Subject == "" {
		subject = p.styles.Placeholder.Render("(No Subject)")
	}
	flag := p.styles.UnreadFlag.Render(strconv.FormatBool(m.Read))
	if m.Read {
		flag = p.styles.ReadFlag.Render(strconv.FormatBool(m.Read))
	}
	_, err := fmt.Fprintf(p.w, "%s %s read: %s\n", sender, subject, flag)
	return err
}

// Messages prints Message for each of msgs, in order.
func (p *Printer) Messages(msgs []mailbox.Message) error {
	for _, m := range msgs {
		if err := p.Message(m); err != nil {
			return err
		}
	}
	return nil
}

// Summary prints the per-sender lines followed by a totals line.
func (p *Printer) Summary(r tally.Report, skipped int) error {
	if _, err := fmt.Fprintln(p.w, p.styles.Title.Render("Senders")); err != nil {
		return err
	}
	for _, sender := range r.Senders() {
		if _, err := fmt.Fprintln(p.w, tally.Line(p.styles.Sender.Render(sender), r[sender])); err != nil {
			return err
		}
	}
	total := r.Total()
	_, err := fmt.Fprintln(p.w, p.styles.Secondary.Render(
		fmt.Sprintf("%d senders, %d messages, %d opened, %d skipped", len(r), total.Count, total.Opened, skipped)))
	return err
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
