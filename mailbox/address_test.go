package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSender(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"a@x.com", "a@x.com"},
		{"Jane Doe <Jane@Example.com>", "jane@example.com"},
		{`"Doe, Jane" <jane@example.com>`, "jane@example.com"},
		{"Doe, Jane <jane@example.com>", "jane@example.com"},
		{"  <bob@example.org>  ", "bob@example.org"},
		{"", ""},
		{"   ", ""},
		{"Mailer Daemon", ""},
		{"undisclosed-recipients:;", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSender(tt.header))
		})
	}
}
