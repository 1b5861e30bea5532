package stability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func escTestConfig() Config {
	cfg := DefaultConfig()
	cfg.ABSEnabled = false
	cfg.TCSEnabled = false
	cfg.LaunchControlEnabled = false
	cfg.ESC = ESCConfig{Sensitivity: 2, InterventionThresholdDeg: 4, MaxCorrection: 0.3}
	return cfg
}

func TestESCSignCorrectness(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	// Steering right at 20 m/s with no actual yaw: a large positive yaw
	// error, well above threshold.
	snap := rollingSnapshot(20, &cfg)
	snap.Steer = 0.5

	out := eng.Update(snap, 0.005)
	require.True(t, out.ESCActive)

	assert.Positive(t, out.SteeringCorrection)
	assert.LessOrEqual(t, out.SteeringCorrection, cfg.ESC.MaxCorrection)

	assert.Equal(t, 0.7, out.BrakeMultiplier[FrontRight])
	assert.Equal(t, 1.0, out.BrakeMultiplier[FrontLeft])
	assert.Equal(t, 1.0, out.BrakeMultiplier[RearLeft])
	assert.Equal(t, 1.0, out.BrakeMultiplier[RearRight])

	assert.InDelta(t, 0.7, out.ThrottleMultiplier, 1e-12)
}

func TestESCNegativeErrorBrakesFrontLeft(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	// Straight steering, but the body is rotating right: negative error.
	snap := rollingSnapshot(20, &cfg)
	snap.AngularVelRadPS.Z = 0.5

	out := eng.Update(snap, 0.005)
	require.True(t, out.ESCActive)
	assert.Negative(t, out.SteeringCorrection)
	assert.Equal(t, 0.7, out.BrakeMultiplier[FrontLeft])
	assert.Equal(t, 1.0, out.BrakeMultiplier[FrontRight])
}

func TestESCInactiveBelowSpeedFloor(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	snap := rollingSnapshot(12, &cfg)
	snap.Steer = 1

	out := eng.Update(snap, 0.005)
	assert.False(t, out.ESCActive)
	assert.Zero(t, out.SteeringCorrection)
}

func TestESCInsideDeadZoneStaysQuiet(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	// Actual yaw tracks the bicycle reference exactly: no error.
	snap := rollingSnapshot(20, &cfg)
	snap.Steer = 0.3
	snap.AngularVelRadPS.Z = desiredYawRate(snap, &cfg)

	out := eng.Update(snap, 0.005)
	assert.False(t, out.ESCActive)
	assert.Equal(t, neutralCorrections(), out)
}

func TestESCSevereOversteerBrakesOutsideFront(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	// Rotating right much faster than commanded while sliding: velocity
	// points well left of the heading, giving a large slip angle.
	snap := rollingSnapshot(20, &cfg)
	snap.Steer = 0.2
	snap.AngularVelRadPS.Z = 3
	angle := 12 * math.Pi / 180
	snap.VelocityMPS = Vec3{X: 20 * math.Cos(angle), Y: 20 * math.Sin(angle)}

	out := eng.Update(snap, 0.005)
	require.True(t, out.ESCActive)
	// Yaw is positive (rightward), so the outside front is the left.
	assert.Equal(t, 0.5, out.BrakeMultiplier[FrontLeft])
}

func TestESCSevereUndersteerBrakesInsideRear(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	// Hard right steering with no rotation and the velocity pushing wide
	// of the heading: classified as understeer with a large slip angle.
	snap := rollingSnapshot(20, &cfg)
	snap.Steer = 0.8
	angle := 12 * math.Pi / 180
	snap.VelocityMPS = Vec3{X: 20 * math.Cos(angle), Y: 20 * math.Sin(angle)}

	out := eng.Update(snap, 0.005)
	require.True(t, out.ESCActive)
	assert.Equal(t, 0.6, out.BrakeMultiplier[RearRight])
}

func TestESCTriggersStack(t *testing.T) {
	cfg := escTestConfig()
	eng := NewEngine(cfg)

	// Understeer slide with hard right steering: both the general yaw
	// error and the severe-understeer trigger fire in one tick.
	snap := rollingSnapshot(20, &cfg)
	snap.Steer = 0.8
	angle := 12 * math.Pi / 180
	snap.VelocityMPS = Vec3{X: 20 * math.Cos(angle), Y: 20 * math.Sin(angle)}

	out := eng.Update(snap, 0.005)
	require.True(t, out.ESCActive)
	assert.Equal(t, 0.7, out.BrakeMultiplier[FrontRight])
	assert.Equal(t, 0.6, out.BrakeMultiplier[RearRight])
	assert.Positive(t, out.SteeringCorrection)
}

func TestESCCombinesWithABSByMinimum(t *testing.T) {
	cfg := escTestConfig()
	cfg.ABSEnabled = true
	cfg.ABS.ReleaseRate = 0.4 // below ESC's 0.7 yaw-assist multiplier
	eng := NewEngine(cfg)

	snap := rollingSnapshot(20, &cfg)
	snap.Steer = 0.5
	snap.Brake = 1
	forceWheelSlip(snap, FrontRight, 0.5, &cfg)

	sawReleased := false
	for i := 0; i < 40; i++ {
		out := eng.Update(snap, 0.005)
		require.True(t, out.ESCActive)
		if out.ABSActive && eng.abs.released[FrontRight] {
			sawReleased = true
			// ABS's deeper release wins over ESC's 0.7.
			assert.Equal(t, 0.4, out.BrakeMultiplier[FrontRight])
		}
	}
	assert.True(t, sawReleased)
}
