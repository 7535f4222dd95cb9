package escrow

import (
	"errors"
	"testing"
)

func TestMapRevertReason(t *testing.T) {
	cases := []struct {
		reason string
		want   error
	}{
		{"execution reverted: not-client", ErrNotClient},
		{"execution reverted: not-freelancer", ErrNotFreelancer},
		{"execution reverted: already-complete", ErrAlreadyComplete},
		{"execution reverted: already-released", ErrAlreadyReleased},
		{"execution reverted: not-complete", ErrNotComplete},
		{"out of gas", ErrChainRejected},
		{"", ErrChainRejected},
	}

	for _, tc := range cases {
		if got := MapRevertReason(tc.reason); !errors.Is(got, tc.want) {
			t.Fatalf("reason %q: expected %v, got %v", tc.reason, tc.want, got)
		}
	}
}
