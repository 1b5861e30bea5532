package stability

import "math"

// Speed floors guarding numerically unstable quantities.
const (
	slipSpeedFloorMS      = 0.1 // below this, slip ratio is defined as 0
	slipAngleSpeedFloorMS = 10  // below this, the slip angle keeps its previous value
	maxSlipRatio          = 2.0
)

// Hysteresis band for the understeer/oversteer classification. The gap
// between the two factors is a dead zone that prevents chatter when the
// actual yaw rate sits near the reference.
const (
	understeerYawFactor = 0.8
	oversteerYawFactor  = 1.2
	steerDeadband       = 0.1
)

// slipState is the estimator output for one tick, consumed by ABS, TCS,
// ESC and launch control.
type slipState struct {
	wheels        [NumWheels]SlipSample
	slipAngleRad  float64
	understeerDeg float64
	oversteerDeg  float64
}

// slipEstimator derives per-wheel slip ratios and the vehicle slip angle
// from the snapshot. The slip angle is carried across ticks so it can hold
// its last meaningful value at low speed.
type slipEstimator struct {
	slipAngleRad float64
}

func (se *slipEstimator) reset() {
	se.slipAngleRad = 0
}

// estimate computes the tick's slip state. cfg supplies the rolling radius
// and the steering geometry for the yaw reference.
func (se *slipEstimator) estimate(snap *VehicleSnapshot, cfg *Config) slipState {
	var out slipState

	speed := math.Abs(snap.SpeedMS)

	for i := 0; i < NumWheels; i++ {
		out.wheels[i] = wheelSlip(&snap.Wheels[i], speed, cfg.WheelRadiusM)
	}

	se.updateSlipAngle(snap, speed)
	out.slipAngleRad = se.slipAngleRad

	if speed > slipAngleSpeedFloorMS {
		lateral := math.Abs(math.Sin(se.slipAngleRad))
		for i := 0; i < NumWheels; i++ {
			out.wheels[i].Combined = math.Hypot(out.wheels[i].Ratio, lateral)
		}
	} else {
		for i := 0; i < NumWheels; i++ {
			out.wheels[i].Combined = out.wheels[i].Ratio
		}
	}

	se.classify(snap, cfg, &out)
	return out
}

// wheelSlip computes one wheel's longitudinal slip ratio. An airborne wheel
// contributes no slip and therefore no intervention.
func wheelSlip(w *WheelContact, speed, radiusM float64) SlipSample {
	if !w.Grounded || speed <= slipSpeedFloorMS {
		return SlipSample{}
	}
	contactSpeed := math.Abs(w.AngularSpeedRadPS) * radiusM
	ratio := math.Abs(contactSpeed-speed) / speed
	return SlipSample{Ratio: clampFloat(ratio, 0, maxSlipRatio)}
}

// updateSlipAngle recomputes the signed angle between the velocity direction
// and the body heading. Positive means the vehicle travels to the right of
// where it points. Below the speed floor the direction of travel is not
// meaningful, so the previous value is kept.
func (se *slipEstimator) updateSlipAngle(snap *VehicleSnapshot, speed float64) {
	if speed <= slipAngleSpeedFloorMS {
		return
	}
	velNorm := snap.VelocityMPS.Norm()
	fwdNorm := snap.Forward.Norm()
	if velNorm < 1e-6 || fwdNorm < 1e-6 {
		return
	}

	cos := clampFloat(snap.VelocityMPS.Dot(snap.Forward)/(velNorm*fwdNorm), -1, 1)
	angle := math.Acos(cos)

	crossZ := snap.Forward.X*snap.VelocityMPS.Y - snap.Forward.Y*snap.VelocityMPS.X
	if crossZ > 0 {
		angle = -angle
	}
	se.slipAngleRad = angle
}

// classify compares the actual yaw rate against the bicycle-model reference.
// Understeer: the vehicle rotates noticeably less than commanded while the
// driver is actually steering. Oversteer: it rotates noticeably more.
func (se *slipEstimator) classify(snap *VehicleSnapshot, cfg *Config, out *slipState) {
	desired := desiredYawRate(snap, cfg)
	actual := snap.YawRateRadPS()
	angleDeg := math.Abs(se.slipAngleRad) * 180 / math.Pi

	switch {
	case math.Abs(actual) < understeerYawFactor*math.Abs(desired) &&
		math.Abs(snap.Steer) > steerDeadband:
		out.understeerDeg = angleDeg
	case math.Abs(actual) > oversteerYawFactor*math.Abs(desired):
		out.oversteerDeg = angleDeg
	}
}
