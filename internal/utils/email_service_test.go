package utils

import (
	"strings"
	"testing"
	"time"
)

func TestInvitationBodyUsesConfiguredTTL(t *testing.T) {
	cases := []struct {
		ttl  time.Duration
		want string
	}{
		{7 * 24 * time.Hour, "expires in 7 days"},
		{3 * 24 * time.Hour, "expires in 3 days"},
		{24 * time.Hour, "expires in 1 day"},
		{12 * time.Hour, "expires in 12 hours"},
		{30 * time.Minute, "expires in 1 hour"},
	}
	for _, c := range cases {
		body := invitationBody("Summer in Rome", "http://localhost:3000/join-trip?token=abc", c.ttl)
		if !strings.Contains(body, c.want) {
			t.Fatalf("ttl %s: expected body to contain %q, got:\n%s", c.ttl, c.want, body)
		}
	}
}

func TestInvitationBodyCarriesLink(t *testing.T) {
	link := "http://localhost:3000/join-trip?token=deadbeef"
	body := invitationBody("Summer in Rome", link, 24*time.Hour)
	if !strings.Contains(body, link) {
		t.Fatalf("expected body to contain the link, got:\n%s", body)
	}
	if !strings.Contains(body, `"Summer in Rome"`) {
		t.Fatalf("expected body to name the trip, got:\n%s", body)
	}
}
