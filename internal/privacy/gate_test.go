package privacy

import (
	"slices"
	"testing"
)

func TestGate_Check(t *testing.T) {
	t.Parallel()

	gate := NewGate()

	tests := []struct {
		name    string
		text    string
		safe    bool
		flagged []string
	}{
		{
			name: "plain preference",
			text: "User is vegetarian",
			safe: true,
		},
		{
			name:    "government id",
			text:    "User's SSN is 123-45-6789",
			safe:    false,
			flagged: []string{PatternGovernmentID},
		},
		{
			name:    "payment card with spaces",
			text:    "card number 4111 1111 1111 1111",
			safe:    false,
			flagged: []string{PatternPaymentCard},
		},
		{
			name:    "payment card bare digits",
			text:    "4111111111111111",
			safe:    false,
			flagged: []string{PatternPaymentCard},
		},
		{
			name:    "email address",
			text:    "reach me at alice@example.com please",
			safe:    false,
			flagged: []string{PatternEmail},
		},
		{
			name:    "phone number",
			text:    "call 555-123-4567 for reservations",
			safe:    false,
			flagged: []string{PatternPhone},
		},
		{
			name:    "phone number with country code",
			text:    "my number is +1 (212) 555-0188",
			safe:    false,
			flagged: []string{PatternPhone},
		},
		{
			name:    "password assignment",
			text:    "password: hunter2",
			safe:    false,
			flagged: []string{PatternCredential},
		},
		{
			name:    "pwd equals",
			text:    "use pwd=s3cret to log in",
			safe:    false,
			flagged: []string{PatternCredential},
		},
		{
			name:    "multiple patterns all reported",
			text:    "email bob@example.com, SSN 123-45-6789",
			safe:    false,
			flagged: []string{PatternGovernmentID, PatternEmail},
		},
		{
			name: "empty input",
			text: "",
			safe: true,
		},
		{
			name: "short digit run is not a card",
			text: "table for 4 at 7pm, party of 12",
			safe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := gate.Check(tt.text)
			if res.Safe != tt.safe {
				t.Fatalf("Check(%q).Safe = %v, want %v (flagged: %v)", tt.text, res.Safe, tt.safe, res.Flagged)
			}
			for _, want := range tt.flagged {
				if !slices.Contains(res.Flagged, want) {
					t.Errorf("Check(%q).Flagged = %v, missing %q", tt.text, res.Flagged, want)
				}
			}
			if tt.safe && len(res.Flagged) != 0 {
				t.Errorf("Check(%q).Flagged = %v, want empty for safe input", tt.text, res.Flagged)
			}
		})
	}
}

func TestGate_Check_SSNDoesNotTriggerPhone(t *testing.T) {
	t.Parallel()

	res := NewGate().Check("123-45-6789")
	if slices.Contains(res.Flagged, PatternPhone) {
		t.Errorf("SSN flagged as phone: %v", res.Flagged)
	}
	if !slices.Contains(res.Flagged, PatternGovernmentID) {
		t.Errorf("SSN not flagged as government-id: %v", res.Flagged)
	}
}

func TestGate_Redact(t *testing.T) {
	t.Parallel()

	gate := NewGate()
	got := gate.Redact("SSN 123-45-6789 and email a@b.co")
	want := "SSN " + RedactPlaceholder + " and email " + RedactPlaceholder
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}

	if got := gate.Redact("nothing sensitive here"); got != "nothing sensitive here" {
		t.Errorf("Redact changed clean input: %q", got)
	}
}
