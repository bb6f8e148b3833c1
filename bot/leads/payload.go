package leads

import (
	"strconv"
	"strings"
)

// payloadDelim joins the verb tag and the requester identity in callback
// payloads. The schema itself is carried by the callback unique key, so the
// payload stays bit-compatible with the deployed operator keyboard.
const payloadDelim = ":"

// EncodeDecision renders the callback payload for a decision affordance.
func EncodeDecision(v Verb, requesterID int64) string {
	return string(v) + payloadDelim + strconv.FormatInt(requesterID, 10)
}

// DecodeDecision parses a decision payload into its verb and requester.
// Unknown verbs, wrong part counts and non-numeric identities all come back
// as ErrMalformedDecision rather than falling through.
func DecodeDecision(payload string) (Verb, int64, error) {
	parts := strings.Split(payload, payloadDelim)
	if len(parts) != 2 {
		return "", 0, ErrMalformedDecision
	}
	verb, ok := ParseVerb(parts[0])
	if !ok {
		return "", 0, ErrMalformedDecision
	}
	requesterID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || requesterID == 0 {
		return "", 0, ErrMalformedDecision
	}
	return verb, requesterID, nil
}
