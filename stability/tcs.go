package stability

const (
	tcsThrottleDeadband = 0.1
	tcsFullSlip         = 0.5 // slip ratio treated as a total traction loss
	tcsRecoveryRate     = 2.0 // intervention units per second back toward 1.0
	tcsActiveBelow      = 0.98
)

// tcsController cuts engine throttle when a driven wheel spins up. The cut
// is immediate; recovery is a fixed-rate ramp after a grace period, so the
// throttle never snaps back hard enough to trigger a fresh slip event.
type tcsController struct {
	intervention  float64 // current throttle multiplier, [MaxReduction, 1]
	responseTimer float64
}

func (t *tcsController) reset() {
	t.intervention = 1
	t.responseTimer = 0
}

// update detects driven-wheel slip and applies the intervention amount as a
// throttle multiplier. The multiplier scales the single engine-level
// throttle, so it reaches all wheels' motor torque.
func (t *tcsController) update(snap *VehicleSnapshot, slip *slipState, cfg *TCSConfig, driven *[NumWheels]bool, dt float64, out *Corrections) {
	maxSlip := 0.0
	if snap.Throttle > tcsThrottleDeadband {
		for i := 0; i < NumWheels; i++ {
			if driven[i] && slip.wheels[i].Ratio > maxSlip {
				maxSlip = slip.wheels[i].Ratio
			}
		}
	}

	if maxSlip > cfg.SlipThreshold {
		span := tcsFullSlip - cfg.SlipThreshold
		slipAmount := clamp01((maxSlip - cfg.SlipThreshold) / span)
		t.intervention = lerp(1, cfg.MaxReduction, slipAmount)
		t.responseTimer = cfg.ResponseTimeSec
	} else {
		t.responseTimer -= dt
		if t.responseTimer <= 0 && t.intervention < 1 {
			t.intervention += tcsRecoveryRate * dt
			if t.intervention > 1 {
				t.intervention = 1
			}
		}
	}

	out.ThrottleMultiplier *= t.intervention
	if t.intervention < tcsActiveBelow {
		out.TCSActive = true
	}
}
