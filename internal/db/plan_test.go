package db

import (
	"testing"
	"time"
)

func TestNormalizeDateDropsClockAndZone(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)

	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "midnight stays",
			input: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "afternoon truncated",
			input: time.Date(2025, 3, 10, 15, 42, 7, 123, time.UTC),
			want:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "zone keeps wall date",
			input: time.Date(2025, 3, 10, 23, 30, 0, 0, shanghai),
			want:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.input)
			if !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
