package playback

import (
	"fmt"
	"strconv"
	"time"
)

// SpeedTier is one entry in the speed cycle.
type SpeedTier struct {
	Label      string
	Multiplier float64
	Delay      time.Duration
}

const DefaultBaseDelay = time.Second

var DefaultMultipliers = []float64{0.5, 1, 2, 4}

// Tiers derives a speed tier per multiplier with Delay = base / multiplier.
func Tiers(base time.Duration, multipliers ...float64) ([]SpeedTier, error) {
	if base <= 0 {
		return nil, fmt.Errorf("playback: base delay must be positive, got %v", base)
	}
	tiers := make([]SpeedTier, len(multipliers))
	for i, m := range multipliers {
		if m <= 0 {
			return nil, fmt.Errorf("playback: speed multiplier must be positive, got %v", m)
		}
		tiers[i] = SpeedTier{
			Label:      strconv.FormatFloat(m, 'f', -1, 64) + "x",
			Multiplier: m,
			Delay:      time.Duration(float64(base) / m),
		}
	}
	return tiers, nil
}

// DefaultSpeeds is 0.5x, 1x, 2x and 4x over a one second base delay.
func DefaultSpeeds() []SpeedTier {
	tiers, _ := Tiers(DefaultBaseDelay, DefaultMultipliers...)
	return tiers
}
