package gametime

import "time"

type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

type ClockConfig struct {
	StartAt       time.Time
	DayDuration   time.Duration
	NightDuration time.Duration
}

// Clock maps wall time onto the campaign's game clock: elapsed game seconds
// since the campaign started, cycling through day and night phases.
type Clock struct {
	cfg ClockConfig
}

func NewClock(cfg ClockConfig) Clock {
	if cfg.DayDuration <= 0 {
		cfg.DayDuration = 10 * time.Minute
	}
	if cfg.NightDuration <= 0 {
		cfg.NightDuration = 5 * time.Minute
	}
	if cfg.StartAt.IsZero() {
		cfg.StartAt = time.Unix(0, 0)
	}
	return Clock{cfg: cfg}
}

func DefaultClock() Clock {
	return NewClock(ClockConfig{})
}

// GameSeconds returns elapsed game time at now, never negative.
func (c Clock) GameSeconds(now time.Time) float64 {
	elapsed := now.Sub(c.cfg.StartAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed.Seconds()
}

// PhaseAt returns the current phase and the time remaining in it.
func (c Clock) PhaseAt(now time.Time) (Phase, time.Duration) {
	total := c.cfg.DayDuration + c.cfg.NightDuration
	if total <= 0 {
		return PhaseDay, 0
	}
	elapsed := now.Sub(c.cfg.StartAt)
	if elapsed < 0 {
		elapsed = 0
	}
	offset := elapsed % total
	if offset < c.cfg.DayDuration {
		return PhaseDay, c.cfg.DayDuration - offset
	}
	nightOffset := offset - c.cfg.DayDuration
	return PhaseNight, c.cfg.NightDuration - nightOffset
}
