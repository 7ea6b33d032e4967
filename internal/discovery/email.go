package discovery

import (
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// mailboxPrefixes are tried in order.
var mailboxPrefixes = []string{"info", "contact", "hello", "enquiries", "partnerships", "business"}

// blockedMailboxes mark automated senders that must never be contacted.
var blockedMailboxes = []string{"noreply", "no-reply", "donotreply", "mailer-daemon", "postmaster"}

// IsValidEmail reports whether addr is syntactically valid and not an automated mailbox.
func IsValidEmail(addr string) bool {
	if !emailPattern.MatchString(addr) {
		return false
	}
	lower := strings.ToLower(addr)
	for _, blocked := range blockedMailboxes {
		if strings.Contains(lower, blocked) {
			return false
		}
	}
	return true
}

// InferEmail guesses a contact address from a company website. The company
// name does not influence the guess. When no prefix validates, info@<domain>
// is returned without validation. Unparseable input yields ok == false.
func InferEmail(website, _ string) (addr string, ok bool) {
	website = strings.TrimSpace(website)
	if website == "" {
		return "", false
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}

	u, err := url.Parse(website)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}

	for _, prefix := range mailboxPrefixes {
		candidate := prefix + "@" + host
		if IsValidEmail(candidate) {
			return candidate, true
		}
	}
	return "info@" + host, true
}
