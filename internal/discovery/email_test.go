package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferEmail(t *testing.T) {
	tests := []struct {
		name    string
		website string
		want    string
		wantOK  bool
	}{
		{name: "mixed case host", website: "https://Example.com", want: "info@example.com", wantOK: true},
		{name: "strips www", website: "https://www.azure-yachts.com/fleet", want: "info@azure-yachts.com", wantOK: true},
		{name: "missing scheme", website: "skyline-jets.ch", want: "info@skyline-jets.ch", wantOK: true},
		{name: "port is dropped", website: "http://villa.example.co.uk:8080", want: "info@villa.example.co.uk", wantOK: true},
		{name: "host without tld falls back unvalidated", website: "http://intranet", want: "info@intranet", wantOK: true},
		{name: "empty", website: "", wantOK: false},
		{name: "unparseable", website: "http://[::1", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferEmail(tt.website, "Any Company")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferEmail_NeverReturnsAutomatedMailbox(t *testing.T) {
	for _, site := range []string{"https://example.com", "https://www.maison-luxe.fr", "lux.travel"} {
		got, ok := InferEmail(site, "")
		assert.True(t, ok)
		for _, blocked := range blockedMailboxes {
			assert.NotContains(t, got, blocked)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"info@example.com", true},
		{"partnerships@maison-luxe.fr", true},
		{"first.last+tag@sub.example.org", true},
		{"noreply@example.com", false},
		{"no-reply@example.com", false},
		{"DoNotReply@example.com", false},
		{"mailer-daemon@example.com", false},
		{"postmaster@example.com", false},
		{"info@intranet", false},
		{"not an email", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.addr))
		})
	}
}
