package stability

import "math"

const (
	escYawRefSpeedFloorMS = 5  // below this the yaw reference is 0
	escMinSpeedMS         = 15 // yaw-error correction only above this

	escYawBrakeMultiplier = 0.7
	escYawThrottleFactor  = 0.7

	escUndersteerAngleDeg = 10
	escUndersteerMinSteer = 0.5
	escUndersteerBrake    = 0.6

	escOversteerAngleDeg = 8
	escOversteerBrake    = 0.5
)

// desiredYawRate is the single-track (bicycle) reference: the yaw rate a
// neutral-steering vehicle would show for the current speed and steering
// angle. Zero below the speed floor, where the model is meaningless.
func desiredYawRate(snap *VehicleSnapshot, cfg *Config) float64 {
	speed := math.Abs(snap.SpeedMS)
	if speed <= escYawRefSpeedFloorMS || snap.WheelbaseM <= 0 {
		return 0
	}
	steerRad := snap.Steer * cfg.MaxSteerAngleDeg * math.Pi / 180
	return speed / snap.WheelbaseM * math.Tan(steerRad)
}

// escDiagnostics is the tick's yaw tracking state, kept for observability.
type escDiagnostics struct {
	DesiredYawRate float64
	ActualYawRate  float64
	YawRateError   float64
}

// escController compares the actual yaw rate against the bicycle reference
// and intervenes with asymmetric braking plus a steering correction. Three
// triggers can fire in the same tick and stack:
//
//  1. general yaw error — counter-steer plus a front-wheel brake on the side
//     that assists the missing rotation, and a flat throttle cut;
//  2. severe understeer — brake the inside rear wheel;
//  3. severe oversteer — brake the outside front wheel.
//
// Brake multipliers combine with whatever ABS already wrote by taking the
// minimum, never by overwriting.
type escController struct {
	diag escDiagnostics
}

func (e *escController) reset() {
	e.diag = escDiagnostics{}
}

func (e *escController) update(snap *VehicleSnapshot, slip *slipState, cfg *Config, out *Corrections) {
	desired := desiredYawRate(snap, cfg)
	actual := snap.YawRateRadPS()
	yawErr := desired - actual

	e.diag = escDiagnostics{
		DesiredYawRate: desired,
		ActualYawRate:  actual,
		YawRateError:   yawErr,
	}

	ec := &cfg.ESC
	thresholdRad := ec.InterventionThresholdDeg * math.Pi / 180
	fired := false

	if math.Abs(snap.SpeedMS) > escMinSpeedMS && math.Abs(yawErr) > thresholdRad {
		out.SteeringCorrection = clampFloat(yawErr*ec.Sensitivity, -ec.MaxCorrection, ec.MaxCorrection)

		// Brake the front wheel whose drag assists the missing rotation:
		// positive error means the vehicle needs more rightward yaw.
		wheel := FrontLeft
		if yawErr > 0 {
			wheel = FrontRight
		}
		brakeAtMost(out, wheel, escYawBrakeMultiplier)
		out.ThrottleMultiplier *= escYawThrottleFactor
		fired = true
	}

	if slip.understeerDeg > escUndersteerAngleDeg && math.Abs(snap.Steer) > escUndersteerMinSteer {
		// Inside rear wheel, the side the driver is steering toward.
		wheel := RearLeft
		if snap.Steer > 0 {
			wheel = RearRight
		}
		brakeAtMost(out, wheel, escUndersteerBrake)
		fired = true
	}

	if slip.oversteerDeg > escOversteerAngleDeg {
		// Outside front wheel, opposite the direction the body is rotating.
		wheel := FrontRight
		if actual > 0 {
			wheel = FrontLeft
		}
		brakeAtMost(out, wheel, escOversteerBrake)
		fired = true
	}

	if fired {
		out.ESCActive = true
	}
}

// brakeAtMost lowers a wheel's brake multiplier to m unless an earlier
// controller already set it lower.
func brakeAtMost(out *Corrections, wheel int, m float64) {
	if m < out.BrakeMultiplier[wheel] {
		out.BrakeMultiplier[wheel] = m
	}
}
