package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sitescripts/internal/model"
)

// Argument errors of the digest command.
var (
	ErrNoInterval      = errors.New("no interval specified")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrNoWeekday       = errors.New("no weekday specified")
	ErrInvalidWeekday  = errors.New("invalid weekday")
)

// Args holds the parsed positional arguments of the digest command.
type Args struct {
	Interval model.Interval
	Weekday  int
}

// ParseArgs parses: <all|week|day> [weekday].
// The weekday (0-6) is required for week runs and ignored otherwise.
func ParseArgs(args []string) (Args, error) {
	if len(args) == 0 {
		return Args{}, ErrNoInterval
	}

	interval := model.Interval(strings.TrimSpace(args[0]))
	switch interval {
	case model.IntervalAll, model.IntervalDay:
		return Args{Interval: interval, Weekday: -1}, nil
	case model.IntervalWeek:
	default:
		return Args{}, fmt.Errorf("%w %q, use: all, week, day", ErrInvalidInterval, args[0])
	}

	if len(args) < 2 {
		return Args{}, ErrNoWeekday
	}
	day, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || day < 0 || day > 6 {
		return Args{}, fmt.Errorf("%w %q, must be between 0 and 6", ErrInvalidWeekday, args[1])
	}
	return Args{Interval: interval, Weekday: day}, nil
}
