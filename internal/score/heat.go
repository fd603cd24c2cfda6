// Package score holds the scoring math and the "heat" visual feedback rules
// shared by the judge panels, the queue widgets and the viewer rating form.
package score

import (
	"fmt"
	"math"
	"time"
)

// Heat gradient endpoints: cool blue-violet down to a soft red.
const (
	startHue = 215.0
	endHue   = 0.0
	heatSat  = 68.0
)

// Flame band: only a dead-on 10 (within float display slop) burns.
const (
	flameMin = 9.95
	flameMax = 10.05
)

// Animation periods for the perfect-score flame, in seconds. The phase is
// derived from wall-clock time so every flame chip on a page pulses in unison
// without any cross-chip coordination.
const (
	pulsePeriodSec = 1.8
	flamePeriodSec = 1.3
)

// HSL is a color in HSL space.
type HSL struct {
	H float64
	S float64
	L float64
}

// CSS renders the color as a CSS hsl() value.
func (c HSL) CSS() string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", trimFloat(c.H), trimFloat(c.S), trimFloat(c.L))
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	return s
}

// Clamp bounds a score to the valid [0,10] range.
func Clamp(v float64) float64 {
	return math.Min(10, math.Max(0, v))
}

// HeatColorForScore maps a score linearly onto the cold-to-hot gradient:
// hue 215 at 0 down to hue 0 at 10, with lightness dimming slightly toward
// the hot end.
func HeatColorForScore(score float64) HSL {
	t := Clamp(score) / 10
	return HSL{
		H: startHue + (endHue-startHue)*t,
		S: heatSat,
		L: 50 - 4*t,
	}
}

// IsFlame reports whether a score sits in the perfect-score band. The band
// is checked on the raw value: 10.06 clamps to 10 for display but does not
// flame.
func IsFlame(score float64) bool {
	return score >= flameMin && score <= flameMax
}

// FlamePhase returns the negative animation delays, in seconds, that align a
// chip's pulse and flame animations to the global wall clock. Both values are
// rounded to centiseconds the way they are written into style attributes.
func FlamePhase(now time.Time) (pulseDelay, flameDelay float64) {
	sec := float64(now.UnixMilli()) / 1000.0
	pulseDelay = -round2(math.Mod(sec, pulsePeriodSec))
	flameDelay = -round2(math.Mod(sec, flamePeriodSec))
	return pulseDelay, flameDelay
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ChipStyle is the resolved visual state of one score chip.
type ChipStyle struct {
	Color      HSL
	Flame      bool
	PulseDelay string
	FlameDelay string
}

// ChipStyleForScore resolves color and flame state for a score at a given
// wall-clock instant.
func ChipStyleForScore(score float64, now time.Time) ChipStyle {
	st := ChipStyle{
		Color: HeatColorForScore(score),
		Flame: IsFlame(score),
	}
	if st.Flame {
		pulse, flame := FlamePhase(now)
		st.PulseDelay = fmt.Sprintf("%.2fs", pulse)
		st.FlameDelay = fmt.Sprintf("%.2fs", flame)
	}
	return st
}
