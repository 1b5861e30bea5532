package stability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWheelSlipRatio(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("rolling wheel has zero slip", func(t *testing.T) {
		w := WheelContact{AngularSpeedRadPS: 20 / cfg.WheelRadiusM, Grounded: true}
		s := wheelSlip(&w, 20, cfg.WheelRadiusM)
		assert.InDelta(t, 0, s.Ratio, 1e-9)
	})

	t.Run("spinning wheel", func(t *testing.T) {
		w := WheelContact{AngularSpeedRadPS: 30 / cfg.WheelRadiusM, Grounded: true}
		s := wheelSlip(&w, 20, cfg.WheelRadiusM)
		assert.InDelta(t, 0.5, s.Ratio, 1e-9)
	})

	t.Run("locked wheel", func(t *testing.T) {
		w := WheelContact{AngularSpeedRadPS: 0, Grounded: true}
		s := wheelSlip(&w, 20, cfg.WheelRadiusM)
		assert.InDelta(t, 1.0, s.Ratio, 1e-9)
	})

	t.Run("airborne wheel has zero slip", func(t *testing.T) {
		w := WheelContact{AngularSpeedRadPS: 500, Grounded: false}
		s := wheelSlip(&w, 20, cfg.WheelRadiusM)
		assert.Zero(t, s.Ratio)
	})

	t.Run("near-zero speed is guarded", func(t *testing.T) {
		w := WheelContact{AngularSpeedRadPS: 100, Grounded: true}
		s := wheelSlip(&w, 0.05, cfg.WheelRadiusM)
		assert.Zero(t, s.Ratio)
	})

	t.Run("ratio is clamped", func(t *testing.T) {
		w := WheelContact{AngularSpeedRadPS: 1e6, Grounded: true}
		s := wheelSlip(&w, 20, cfg.WheelRadiusM)
		assert.Equal(t, maxSlipRatio, s.Ratio)
	})
}

func TestSlipAngleHeldAtLowSpeed(t *testing.T) {
	cfg := DefaultConfig()
	var se slipEstimator

	// Sliding at 20 m/s with the velocity 10 degrees off the heading.
	angle := 10 * math.Pi / 180
	fast := rollingSnapshot(20, &cfg)
	fast.VelocityMPS = Vec3{X: 20 * math.Cos(angle), Y: 20 * math.Sin(angle)}
	se.estimate(fast, &cfg)
	assert.InDelta(t, angle, math.Abs(se.slipAngleRad), 1e-9)

	// Dropping below the floor keeps the previous value instead of
	// recomputing a meaningless direction.
	slow := rollingSnapshot(3, &cfg)
	slow.VelocityMPS = Vec3{X: -1, Y: 3}
	se.estimate(slow, &cfg)
	assert.InDelta(t, angle, math.Abs(se.slipAngleRad), 1e-9)
}

func TestSlipAngleSign(t *testing.T) {
	cfg := DefaultConfig()
	var se slipEstimator

	// Velocity to the left of the heading (positive Y): negative angle.
	snap := rollingSnapshot(20, &cfg)
	snap.VelocityMPS = Vec3{X: 19, Y: 5}
	se.estimate(snap, &cfg)
	assert.Negative(t, se.slipAngleRad)

	// Velocity to the right of the heading: positive angle.
	snap.VelocityMPS = Vec3{X: 19, Y: -5}
	se.estimate(snap, &cfg)
	assert.Positive(t, se.slipAngleRad)
}

func TestClassificationDeadZone(t *testing.T) {
	cfg := DefaultConfig()
	var se slipEstimator

	// 6 degree slip angle so a classification records a visible magnitude.
	angle := 6 * math.Pi / 180
	snap := rollingSnapshot(20, &cfg)
	snap.VelocityMPS = Vec3{X: 20 * math.Cos(angle), Y: 20 * math.Sin(angle)}
	snap.Steer = 0.4
	desired := desiredYawRate(snap, &cfg)

	t.Run("understeer below 0.8x reference", func(t *testing.T) {
		snap.AngularVelRadPS.Z = 0.5 * desired
		out := se.estimate(snap, &cfg)
		assert.InDelta(t, 6, out.understeerDeg, 1e-9)
		assert.Zero(t, out.oversteerDeg)
	})

	t.Run("neutral inside the band", func(t *testing.T) {
		snap.AngularVelRadPS.Z = desired
		out := se.estimate(snap, &cfg)
		assert.Zero(t, out.understeerDeg)
		assert.Zero(t, out.oversteerDeg)
	})

	t.Run("neutral at the band edges", func(t *testing.T) {
		for _, factor := range []float64{0.9, 1.1} {
			snap.AngularVelRadPS.Z = factor * desired
			out := se.estimate(snap, &cfg)
			assert.Zero(t, out.understeerDeg, "factor %v", factor)
			assert.Zero(t, out.oversteerDeg, "factor %v", factor)
		}
	})

	t.Run("oversteer above 1.2x reference", func(t *testing.T) {
		snap.AngularVelRadPS.Z = 1.5 * desired
		out := se.estimate(snap, &cfg)
		assert.Zero(t, out.understeerDeg)
		assert.InDelta(t, 6, out.oversteerDeg, 1e-9)
	})
}

func TestCombinedSlipIncludesLateralComponent(t *testing.T) {
	cfg := DefaultConfig()
	var se slipEstimator

	angle := 15 * math.Pi / 180
	snap := rollingSnapshot(20, &cfg)
	snap.VelocityMPS = Vec3{X: 20 * math.Cos(angle), Y: 20 * math.Sin(angle)}
	forceWheelSlip(snap, RearLeft, 0.3, &cfg)

	out := se.estimate(snap, &cfg)
	want := math.Hypot(0.3, math.Sin(angle))
	assert.InDelta(t, want, out.wheels[RearLeft].Combined, 1e-9)
	assert.Greater(t, out.wheels[RearLeft].Combined, out.wheels[RearLeft].Ratio)
}
