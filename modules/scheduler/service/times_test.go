package service

import (
	"testing"
	"time"

	"go-event-roster/modules/event/entity"
)

func TestOpenAt(t *testing.T) {
	start := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	e := &entity.Event{StartAt: start, EndAt: start.Add(time.Hour), VenueLeadSeconds: 7200}
	if got, want := OpenAt(e), start.Add(-2*time.Hour); !got.Equal(want) {
		t.Fatalf("OpenAt = %v, want %v", got, want)
	}
}

func TestCloseAt(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		tz   string
		end  time.Time
		want time.Time
	}{
		{
			name: "utc evening",
			tz:   "UTC",
			end:  time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC),
			want: time.Date(2026, 6, 3, 0, 1, 0, 0, time.UTC),
		},
		{
			name: "ends at midnight",
			tz:   "UTC",
			end:  time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 6, 4, 0, 1, 0, 0, time.UTC),
		},
		{
			name: "local day differs from utc day",
			tz:   "Europe/London",
			end:  time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC), // 00:30 on 2 June in London
			want: time.Date(2026, 6, 4, 0, 1, 0, 0, london),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &entity.Event{Timezone: tt.tz, StartAt: tt.end.Add(-time.Hour), EndAt: tt.end}
			if got := CloseAt(e); !got.Equal(tt.want) {
				t.Fatalf("CloseAt = %v, want %v", got, tt.want)
			}
		})
	}
}
