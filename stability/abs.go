package stability

// absBrakeDeadband is the pedal input below which lock detection is skipped.
const absBrakeDeadband = 0.1

// absController runs one two-state pulse machine per wheel: Normal, or
// Pulsing with a released phase toggled at the configured frequency. There
// is no cross-wheel coupling; each wheel is evaluated independently.
type absController struct {
	pulseTimer [NumWheels]float64
	released   [NumWheels]bool
	pulsing    [NumWheels]bool
}

func (a *absController) reset() {
	*a = absController{}
}

// update advances every wheel's state machine and writes brake multipliers
// into the shared correction record.
func (a *absController) update(snap *VehicleSnapshot, slip *slipState, cfg *ABSConfig, dt float64, out *Corrections) {
	period := 1 / cfg.PulseFrequencyHz

	for i := 0; i < NumWheels; i++ {
		locking := snap.Brake > absBrakeDeadband && slip.wheels[i].Ratio > cfg.SlipThreshold

		if !locking {
			// Back to Normal the instant the lock condition clears.
			a.pulsing[i] = false
			a.released[i] = false
			a.pulseTimer[i] = 0
			continue
		}

		a.pulsing[i] = true
		a.pulseTimer[i] += dt
		if a.pulseTimer[i] >= period {
			a.pulseTimer[i] = 0
			a.released[i] = !a.released[i]
		}

		if a.released[i] {
			out.BrakeMultiplier[i] = cfg.ReleaseRate
		}
		out.ABSActive = true
	}
}
