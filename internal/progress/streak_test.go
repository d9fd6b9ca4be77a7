package progress

import (
	"testing"
	"time"
)

func TestCurrentStreakDays(t *testing.T) {
	cases := []struct {
		name  string
		last  time.Time
		now   time.Time
		prior int
		want  int
	}{
		{"same instant", t0, t0, 3, 3},
		{"later the same bucket", t0, t0.Add(23 * time.Hour), 3, 3},
		{"one day", t0, t0.Add(day), 3, 4},
		{"almost two days", t0, t0.Add(47 * time.Hour), 3, 4},
		{"five days", t0, t0.Add(5 * day), 3, 1},
		{"clock went back", t0, t0.Add(-time.Hour), 3, 3},
		{"first login", time.Time{}, t0, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrentStreakDays(tc.last, tc.now, tc.prior); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
