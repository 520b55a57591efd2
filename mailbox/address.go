package mailbox

import (
	"net/mail"
	"strings"
)

// ParseSender extracts the bare address from a From header value such as
// `"Jane Doe" <Jane@Example.com>`. It returns "" when no address can be found.
func ParseSender(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(header); err == nil {
		return strings.ToLower(addr.Address)
	}
	// Display names with unquoted commas or dots fail to parse; fall back to the angle brackets.
	if open := strings.LastIndex(header, "<"); open != -1 {
		if end := strings.LastIndex(header, ">"); end > open {
			header = header[open+1 : end]
		}
	}
	header = strings.TrimSpace(header)
	if strings.Count(header, "@") != 1 || strings.ContainsAny(header, " \t<>") {
		return ""
	}
	return strings.ToLower(header)
}
