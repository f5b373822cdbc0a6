package syncjob_test

import (
	"testing"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
)

func TestNextRun(t *testing.T) {
	s := &syncjob.Scheduler{HourUTC: 20, MinuteUTC: 30}

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before todays slot",
			now:  time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, 10, 15, 20, 30, 0, 0, time.UTC),
		},
		{
			name: "after todays slot",
			now:  time.Date(2024, 10, 15, 22, 0, 0, 0, time.UTC),
			want: time.Date(2024, 10, 16, 20, 30, 0, 0, time.UTC),
		},
		{
			name: "exactly at the slot rolls to tomorrow",
			now:  time.Date(2024, 10, 15, 20, 30, 0, 0, time.UTC),
			want: time.Date(2024, 10, 16, 20, 30, 0, 0, time.UTC),
		},
		{
			name: "non-UTC input is normalized",
			now:  time.Date(2024, 10, 16, 1, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
			want: time.Date(2024, 10, 15, 20, 30, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.NextRun(tc.now)
			if !got.Equal(tc.want) {
				t.Fatalf("NextRun(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}
