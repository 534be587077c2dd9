package views

import (
	"strings"
	"testing"
	"time"
)

func TestFormatWhen(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.Local)

	cases := []struct {
		ts   int64
		want string
	}{
		{0, ""},
		{now.Add(-20 * time.Second).Unix(), "just now"},
		{now.Add(-5 * time.Minute).Unix(), "5m ago"},
		{now.Add(-3 * time.Hour).Unix(), "12:30"},
		{now.AddDate(0, 0, -2).Unix(), "Aug 26 15:30"},
	}
	for _, c := range cases {
		if got := formatWhen(c.ts, now); got != c.want {
			t.Errorf("formatWhen(%d) = %q, want %q", c.ts, got, c.want)
		}
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	// Thumbs up with skin tone modifier degrades to the base emoji.
	in := "ok \U0001F44D\U0001F3FB done"
	want := "ok \U0001F44D done"
	if got := sanitizeForTerminal(in); got != want {
		t.Errorf("sanitize = %q, want %q", got, want)
	}

	// Zero width joiner sequences collapse to their parts.
	if got := sanitizeForTerminal("a‍b"); got != "ab" {
		t.Errorf("zwj not stripped: %q", got)
	}

	// Plain text passes through untouched.
	if got := sanitizeForTerminal("hello"); got != "hello" {
		t.Errorf("plain text altered: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("short string altered: %q", got)
	}
	got := truncate(strings.Repeat("x", 100), 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("long string not truncated with ellipsis: %q", got)
	}
}

func TestInviteLink(t *testing.T) {
	cases := []struct {
		server string
		want   string
	}{
		{"wss://chat.example.com/ws", "https://chat.example.com/?code=R1"},
		{"ws://localhost:8080/ws", "http://localhost:8080/?code=R1"},
	}
	for _, c := range cases {
		if got := inviteLink(c.server, "R1"); got != c.want {
			t.Errorf("inviteLink(%q) = %q, want %q", c.server, got, c.want)
		}
	}
}
