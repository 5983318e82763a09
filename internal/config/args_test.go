package config

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sitescripts/internal/model"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Args
		wantErr error
	}{
		{name: "all", args: []string{"all"}, want: Args{Interval: model.IntervalAll, Weekday: -1}},
		{name: "day", args: []string{"day"}, want: Args{Interval: model.IntervalDay, Weekday: -1}},
		{name: "day ignores extra", args: []string{"day", "3"}, want: Args{Interval: model.IntervalDay, Weekday: -1}},
		{name: "week with day", args: []string{"week", "3"}, want: Args{Interval: model.IntervalWeek, Weekday: 3}},
		{name: "week sunday", args: []string{"week", "0"}, want: Args{Interval: model.IntervalWeek, Weekday: 0}},
		{name: "no args", args: nil, wantErr: ErrNoInterval},
		{name: "bad interval", args: []string{"month"}, wantErr: ErrInvalidInterval},
		{name: "week without day", args: []string{"week"}, wantErr: ErrNoWeekday},
		{name: "week day not a number", args: []string{"week", "mon"}, wantErr: ErrInvalidWeekday},
		{name: "week day out of range", args: []string{"week", "7"}, wantErr: ErrInvalidWeekday},
		{name: "week day negative", args: []string{"week", "-1"}, wantErr: ErrInvalidWeekday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseArgs() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
