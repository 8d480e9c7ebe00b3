package resolver

import (
	"regexp"

	"orderpick/internal/domain"
)

// UK postcode: one or two letters, a digit, optional letter/digit, optional
// space, a digit, two letters.
var postcodePattern = regexp.MustCompile(`[A-Za-z]{1,2}[0-9][A-Za-z0-9]?\s?[0-9][A-Za-z]{2}`)

// ExtractPostcode pulls the buyer's postcode out of a raw scanner payload.
// Every shipping label also carries the warehouse's own outgoing address, so
// candidates matching a known sender postcode (exact, or sharing a
// 4-character prefix in either direction) are discarded. The first surviving
// candidate in scan order wins; ok is false when none survive and no search
// should be triggered.
func ExtractPostcode(payload string, senders []string) (postcode string, ok bool) {
	normalizedSenders := make([]string, 0, len(senders))
	for _, s := range senders {
		if n := domain.NormalizePostcode(s); n != "" {
			normalizedSenders = append(normalizedSenders, n)
		}
	}

	for _, raw := range postcodePattern.FindAllString(payload, -1) {
		candidate := domain.NormalizePostcode(raw)
		if candidate == "" || isSender(candidate, normalizedSenders) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func isSender(candidate string, senders []string) bool {
	for _, sender := range senders {
		if candidate == sender {
			return true
		}
		if len(candidate) >= 4 && len(sender) >= 4 && candidate[:4] == sender[:4] {
			return true
		}
	}
	return false
}
