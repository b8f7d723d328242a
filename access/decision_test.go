package access

import (
	"errors"
	"testing"
)

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("allow:12345")
	if err != nil || d.Action != ActionAllow || d.UserID != 12345 {
		t.Fatalf("ParseDecision(allow) = %+v, %v", d, err)
	}
	if d.Payload() != "allow:12345" {
		t.Fatalf("Payload() = %q", d.Payload())
	}
	d, err = ParseDecision("deny:7")
	if err != nil || d.Action != ActionDeny || d.UserID != 7 {
		t.Fatalf("ParseDecision(deny) = %+v, %v", d, err)
	}
}

func TestParseDecisionRejectsGarbage(t *testing.T) {
	for _, payload := range []string{
		"",
		"allow",
		"allow:",
		"ban:123",
		"ALLOW:123",
		"allow:abc",
		"allow:-5",
		"allow:0",
		"deny:99999999999999999999",
	} {
		if _, err := ParseDecision(payload); !errors.Is(err, ErrInvalidDecision) {
			t.Errorf("ParseDecision(%q) err = %v, want ErrInvalidDecision", payload, err)
		}
	}
}
