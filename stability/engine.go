package stability

// Engine is the per-vehicle stability and traction control engine. It owns
// all cross-tick controller state; the caller owns the simulation loop and
// invokes Update exactly once per physics tick with a deterministic dt.
//
// An Engine instance belongs to exactly one vehicle. It holds no shared
// state, so independent vehicles may tick their engines concurrently.
type Engine struct {
	cfg Config

	slip   slipEstimator
	abs    absController
	tcs    tcsController
	esc    escController
	launch launchController
}

// NewEngine builds an engine for one vehicle. The configuration is clamped
// to its safe ranges before use.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg.clamped()}
	e.Reset()
	return e
}

// Reset restores the initial controller state, as for a freshly spawned
// vehicle. The configuration is kept.
func (e *Engine) Reset() {
	e.slip.reset()
	e.abs.reset()
	e.tcs.reset()
	e.esc.reset()
	e.launch.reset()
}

// Update runs one control tick and returns the frozen correction record.
// Controllers run in a fixed order — slip estimation, ABS, TCS, ESC, launch
// control — because ESC and launch control compose multiplicatively onto
// values the earlier stages produced. The aggregation itself adds no
// smoothing; every transient is owned by the controller that causes it.
func (e *Engine) Update(snap *VehicleSnapshot, dt float64) Corrections {
	out := neutralCorrections()
	if dt <= 0 {
		return out
	}

	slip := e.slip.estimate(snap, &e.cfg)

	if e.cfg.ABSEnabled {
		e.abs.update(snap, &slip, &e.cfg.ABS, dt, &out)
	}
	if e.cfg.TCSEnabled {
		e.tcs.update(snap, &slip, &e.cfg.TCS, &e.cfg.DrivenWheels, dt, &out)
	}
	if e.cfg.ESCEnabled {
		e.esc.update(snap, &slip, &e.cfg, &out)
	}
	if e.cfg.LaunchControlEnabled {
		e.launch.update(snap, &slip, &e.cfg, &e.cfg.DrivenWheels, &out)
	}

	clampCorrections(&out)
	return out
}

// clampCorrections forces every output into its documented range before the
// record is handed across the boundary.
func clampCorrections(out *Corrections) {
	for i := 0; i < NumWheels; i++ {
		out.BrakeMultiplier[i] = clamp01(out.BrakeMultiplier[i])
	}
	out.ThrottleMultiplier = clamp01(out.ThrottleMultiplier)
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Diagnostics exposes the engine's internal tracking state for logging and
// trace output. Internal control decisions never read these values.
type Diagnostics struct {
	DesiredYawRate  float64
	ActualYawRate   float64
	YawRateError    float64
	SlipAngleRad    float64
	TCSIntervention float64
}

// Diagnostics returns the most recent tick's tracking state.
func (e *Engine) Diagnostics() Diagnostics {
	return Diagnostics{
		DesiredYawRate:  e.esc.diag.DesiredYawRate,
		ActualYawRate:   e.esc.diag.ActualYawRate,
		YawRateError:    e.esc.diag.YawRateError,
		SlipAngleRad:    e.slip.slipAngleRad,
		TCSIntervention: e.tcs.intervention,
	}
}

// Runtime setters for the configuration/UI boundary. Every value is clamped
// to its safe range on the way in; an out-of-range request can never leave
// a tick observing an invalid configuration.

// SetESCEnabled toggles electronic stability control.
func (e *Engine) SetESCEnabled(on bool) { e.cfg.ESCEnabled = on }

// SetTCSEnabled toggles traction control.
func (e *Engine) SetTCSEnabled(on bool) { e.cfg.TCSEnabled = on }

// SetABSEnabled toggles anti-lock braking.
func (e *Engine) SetABSEnabled(on bool) { e.cfg.ABSEnabled = on }

// SetLaunchControlEnabled toggles launch control.
func (e *Engine) SetLaunchControlEnabled(on bool) { e.cfg.LaunchControlEnabled = on }

// SetABSConfig replaces the ABS parameters, clamped to safe ranges.
func (e *Engine) SetABSConfig(c ABSConfig) { e.cfg.ABS = c.clamped() }

// SetTCSConfig replaces the TCS parameters, clamped to safe ranges.
func (e *Engine) SetTCSConfig(c TCSConfig) { e.cfg.TCS = c.clamped() }

// SetESCConfig replaces the ESC parameters, clamped to safe ranges.
func (e *Engine) SetESCConfig(c ESCConfig) { e.cfg.ESC = c.clamped() }

// SetLaunchConfig replaces the launch control parameters, clamped to safe
// ranges.
func (e *Engine) SetLaunchConfig(c LaunchConfig) { e.cfg.Launch = c.clamped() }

// SetDrivenWheels configures the drivetrain layout used by TCS and launch
// control.
func (e *Engine) SetDrivenWheels(driven [NumWheels]bool) { e.cfg.DrivenWheels = driven }
