package order

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "pending to paid", from: StatusPending, to: StatusPaid, want: true},
		{name: "paid to worker requested", from: StatusPaid, to: StatusWorkerRequested, want: true},
		{name: "worker requested to assigned", from: StatusWorkerRequested, to: StatusAssigned, want: true},
		{name: "pending cannot skip to assigned", from: StatusPending, to: StatusAssigned, want: false},
		{name: "assigned is terminal", from: StatusAssigned, to: StatusPending, want: false},
		{name: "no going back", from: StatusPaid, to: StatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransitionAllowed(tt.from, tt.to); got != tt.want {
				t.Errorf("IsTransitionAllowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
