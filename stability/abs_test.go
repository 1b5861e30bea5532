package stability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestABSPulseCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ABS = ABSConfig{SlipThreshold: 0.12, ReleaseRate: 0.9, PulseFrequencyHz: 20}
	cfg.TCSEnabled = false
	cfg.ESCEnabled = false
	cfg.LaunchControlEnabled = false
	eng := NewEngine(cfg)

	snap := rollingSnapshot(25, &cfg)
	snap.Brake = 1
	forceWheelSlip(snap, FrontLeft, 0.5, &cfg)

	const dt = 0.005 // 200 Hz tick, 10 ticks per pulse phase
	const ticksPerPhase = 10

	var phases []float64
	prev := -1.0
	for i := 0; i < 8*ticksPerPhase; i++ {
		out := eng.Update(snap, dt)
		assert.True(t, out.ABSActive)
		m := out.BrakeMultiplier[FrontLeft]
		if m != prev {
			phases = append(phases, m)
			prev = m
		}
		// Only the locking wheel is touched.
		assert.Equal(t, 1.0, out.BrakeMultiplier[FrontRight])
		assert.Equal(t, 1.0, out.BrakeMultiplier[RearLeft])
		assert.Equal(t, 1.0, out.BrakeMultiplier[RearRight])
	}

	// Multiplier alternates 1.0 / 0.9 with a 1/20 s phase length.
	require.GreaterOrEqual(t, len(phases), 6)
	for i, m := range phases {
		if i%2 == 0 {
			assert.Equal(t, 1.0, m, "phase %d", i)
		} else {
			assert.Equal(t, 0.9, m, "phase %d", i)
		}
	}
}

func TestABSReleasesInstantlyWhenLockClears(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TCSEnabled = false
	cfg.ESCEnabled = false
	cfg.LaunchControlEnabled = false
	eng := NewEngine(cfg)

	locked := rollingSnapshot(25, &cfg)
	locked.Brake = 1
	forceWheelSlip(locked, RearRight, 0.5, &cfg)

	// Run until the wheel is in the released phase.
	released := false
	for i := 0; i < 100 && !released; i++ {
		out := eng.Update(locked, 0.005)
		released = out.BrakeMultiplier[RearRight] < 1
	}
	require.True(t, released)

	// One tick of clean rolling drops the machine back to Normal.
	clean := rollingSnapshot(25, &cfg)
	clean.Brake = 1
	out := eng.Update(clean, 0.005)
	assert.False(t, out.ABSActive)
	assert.Equal(t, 1.0, out.BrakeMultiplier[RearRight])
	assert.Equal(t, 0.0, eng.abs.pulseTimer[RearRight])
	assert.False(t, eng.abs.released[RearRight])
}

func TestABSNeedsBrakeInput(t *testing.T) {
	cfg := DefaultConfig()
	eng := NewEngine(cfg)

	snap := rollingSnapshot(25, &cfg)
	snap.Brake = 0.05 // below the pedal deadband
	forceWheelSlip(snap, FrontLeft, 0.5, &cfg)

	for i := 0; i < 50; i++ {
		out := eng.Update(snap, 0.005)
		assert.False(t, out.ABSActive)
		assert.Equal(t, 1.0, out.BrakeMultiplier[FrontLeft])
	}
}

func TestABSWheelsAreIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TCSEnabled = false
	cfg.ESCEnabled = false
	cfg.LaunchControlEnabled = false
	eng := NewEngine(cfg)

	snap := rollingSnapshot(25, &cfg)
	snap.Brake = 1
	forceWheelSlip(snap, FrontLeft, 0.5, &cfg)

	// Advance the front-left machine halfway into a phase, then lock the
	// rear-right as well: its timer must start from zero.
	for i := 0; i < 5; i++ {
		eng.Update(snap, 0.005)
	}
	forceWheelSlip(snap, RearRight, 0.5, &cfg)
	eng.Update(snap, 0.005)

	assert.Greater(t, eng.abs.pulseTimer[FrontLeft], eng.abs.pulseTimer[RearRight])
}
