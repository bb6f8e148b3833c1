package leads

import "testing"

func TestDecisionPayloadRoundTrip(t *testing.T) {
	for _, verb := range []Verb{VerbAccept, VerbReject, VerbClarify} {
		payload := EncodeDecision(verb, 123456789)
		got, requesterID, err := DecodeDecision(payload)
		if err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
		if got != verb {
			t.Fatalf("verb = %q, want %q", got, verb)
		}
		if requesterID != 123456789 {
			t.Fatalf("requesterID = %d, want 123456789", requesterID)
		}
	}
}

func TestDecodeDecisionRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"accept",
		"accept:",
		":42",
		"accept:42:extra",
		"promote:42",
		"accept:abc",
		"accept:0",
	}
	for _, payload := range cases {
		if _, _, err := DecodeDecision(payload); err != ErrMalformedDecision {
			t.Fatalf("DecodeDecision(%q) err = %v, want ErrMalformedDecision", payload, err)
		}
	}
}
