package download

import (
	"testing"
)

func TestParseServiceStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"PREPARING", StatusPending, false},
		{"SUSPENDED", StatusPending, false},
		{"RUNNING", StatusRunning, false},
		{"running", StatusRunning, false},
		{"SUCCEEDED", StatusSucceeded, false},
		{"FAILED", StatusFailed, false},
		{"FILE_ERASED", StatusFailed, false},
		{"CANCELLED", StatusCancelled, false},
		{"KILLED", StatusCancelled, false},
		{"", "", true},
		{"DONE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseServiceStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseServiceStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseServiceStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:   false,
		StatusRunning:   false,
		StatusSucceeded: true,
		StatusFailed:    true,
		StatusCancelled: true,
	}
	for s, want := range terminal {
		if s.IsTerminal() != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, !want, want)
		}
	}
}
