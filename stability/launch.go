package stability

const (
	launchThrottleFloor  = 0.8  // pedal input below this is not a launch
	launchRPMRange       = 1000 // rpm overshoot that maps to a full throttle cut
	launchWheelSlipLimit = 0.05
	launchWheelSlipScale = 0.9 // extra cut per spinning driven wheel
)

// launchController limits engine speed during a standing start and layers a
// gentle per-wheel wheelspin cut on top. It runs after TCS and multiplies
// into whatever throttle reduction is already in place.
type launchController struct {
	active bool
}

func (l *launchController) reset() {
	l.active = false
}

func (l *launchController) update(snap *VehicleSnapshot, slip *slipState, cfg *Config, driven *[NumWheels]bool, out *Corrections) {
	lc := &cfg.Launch
	l.active = snap.SpeedMS < lc.SpeedCeiling &&
		snap.Throttle > launchThrottleFloor &&
		snap.Gear > 0

	if !l.active {
		return
	}

	if snap.RPM > lc.RPMLimit {
		cut := clamp01((snap.RPM - lc.RPMLimit) / launchRPMRange)
		out.ThrottleMultiplier *= 1 - cut
	}

	for i := 0; i < NumWheels; i++ {
		if driven[i] && slip.wheels[i].Ratio > launchWheelSlipLimit {
			out.ThrottleMultiplier *= launchWheelSlipScale
		}
	}

	out.LaunchControlActive = true
}
