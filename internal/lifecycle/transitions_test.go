package lifecycle

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		valid bool
	}{
		{"new", "in_progress", true},
		{"new", "cancelled", true},
		{"new", "success", false},
		{"new", "closed", false},
		{"in_progress", "success", true},
		{"in_progress", "monitoring", true},
		{"in_progress", "postponed", true},
		{"in_progress", "cancelled", true},
		{"in_progress", "closed", true},
		{"in_progress", "new", false},
		{"success", "closed", true},
		{"success", "in_progress", false},
		{"monitoring", "in_progress", true},
		{"monitoring", "closed", true},
		{"postponed", "in_progress", true},
		{"postponed", "closed", true},
		{"closed", "new", false},
		{"closed", "in_progress", false},
		{"cancelled", "new", false},
		{"cancelled", "cancelled", false},
		{"unknown", "new", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		"new": false, "in_progress": false, "success": false,
		"monitoring": false, "postponed": false,
		"closed": true, "cancelled": true,
	} {
		if got := IsTerminal(status); got != terminal {
			t.Fatalf("IsTerminal(%q) = %v, want %v", status, got, terminal)
		}
	}
}
