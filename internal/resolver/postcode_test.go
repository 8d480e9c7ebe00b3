package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPostcode(t *testing.T) {
	senders := []string{"LU56RT", "LU33RZ"}

	testCases := []struct {
		name    string
		payload string
		want    string
		ok      bool
	}{
		{
			name:    "plain postcode",
			payload: "JGB 016 152 826 AB1 2CD",
			want:    "AB12CD",
			ok:      true,
		},
		{
			name:    "no space variant",
			payload: "ref:sw1a1aa;qty=2",
			want:    "SW1A1AA",
			ok:      true,
		},
		{
			name:    "sender postcode is never the buyer",
			payload: "RETURN TO LU5 6RT",
			ok:      false,
		},
		{
			name:    "sender prefix overlap filtered",
			payload: "LU5 6XX somewhere",
			ok:      false,
		},
		{
			name:    "first non-sender candidate wins",
			payload: "FROM LU5 6RT TO NE1 4LP THEN M1 1AE",
			want:    "NE14LP",
			ok:      true,
		},
		{
			name:    "no postcode at all",
			payload: "123456 no address here",
			ok:      false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractPostcode(tc.payload, senders)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractPostcodeNoSenders(t *testing.T) {
	got, ok := ExtractPostcode("LU5 6RT", nil)
	require.True(t, ok)
	require.Equal(t, "LU56RT", got)
}
