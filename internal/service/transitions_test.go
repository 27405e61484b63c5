package service

import (
	"testing"

	"github.com/Himansh-u2000/QPlan/internal/model"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   model.RequestStatus
		valid  bool
	}{
		{"approve", model.RequestPending, true},
		{"approve", model.RequestApproved, false},
		{"approve", model.RequestDenied, false},
		{"deny", model.RequestPending, true},
		{"deny", model.RequestDenied, false},
		{"deny", model.RequestApproved, false},
		{"archive", model.RequestPending, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}
