package stability

// ABSConfig holds anti-lock braking parameters.
type ABSConfig struct {
	SlipThreshold    float64 `json:"slip_threshold"`     // slip ratio that counts as lock-up
	ReleaseRate      float64 `json:"release_rate"`       // brake multiplier during the release half of a pulse
	PulseFrequencyHz float64 `json:"pulse_frequency_hz"` // release/reapply toggle rate
}

// TCSConfig holds traction control parameters.
type TCSConfig struct {
	SlipThreshold   float64 `json:"slip_threshold"`    // driven-wheel slip ratio that triggers a cut
	MaxReduction    float64 `json:"max_reduction"`     // lowest throttle multiplier the cut may reach
	ResponseTimeSec float64 `json:"response_time_sec"` // grace period before recovery starts
}

// ESCConfig holds stability control parameters.
type ESCConfig struct {
	Sensitivity              float64 `json:"sensitivity"`                // steering correction per rad/s of yaw error
	InterventionThresholdDeg float64 `json:"intervention_threshold_deg"` // yaw error (deg/s) that triggers correction
	MaxCorrection            float64 `json:"max_correction"`             // steering correction bound, normalized units
}

// LaunchConfig holds launch control parameters.
type LaunchConfig struct {
	RPMLimit     float64 `json:"rpm_limit"`     // engine speed ceiling during launch
	SpeedCeiling float64 `json:"speed_ceiling"` // m/s; launch control disengages above this
}

// Config is the per-vehicle-class configuration. It is immutable once handed
// to NewEngine; runtime adjustment goes through the Engine setters, which
// clamp every value to its documented safe range.
type Config struct {
	ESCEnabled           bool `json:"esc_enabled"`
	TCSEnabled           bool `json:"tcs_enabled"`
	ABSEnabled           bool `json:"abs_enabled"`
	LaunchControlEnabled bool `json:"launch_control_enabled"`

	ABS    ABSConfig    `json:"abs"`
	TCS    TCSConfig    `json:"tcs"`
	ESC    ESCConfig    `json:"esc"`
	Launch LaunchConfig `json:"launch_control"`

	// DrivenWheels marks the wheels receiving motor torque,
	// indexed FrontLeft..RearRight.
	DrivenWheels [NumWheels]bool `json:"driven_wheels"`

	WheelRadiusM     float64 `json:"wheel_radius_m"`      // effective rolling radius
	MaxSteerAngleDeg float64 `json:"max_steer_angle_deg"` // full-lock steering angle
}

// DefaultConfig returns a rear-wheel-drive setup with all four systems on.
func DefaultConfig() Config {
	return Config{
		ESCEnabled:           true,
		TCSEnabled:           true,
		ABSEnabled:           true,
		LaunchControlEnabled: true,
		ABS: ABSConfig{
			SlipThreshold:    0.12,
			ReleaseRate:      0.9,
			PulseFrequencyHz: 20,
		},
		TCS: TCSConfig{
			SlipThreshold:   0.15,
			MaxReduction:    0.6,
			ResponseTimeSec: 0.15,
		},
		ESC: ESCConfig{
			Sensitivity:              0.5,
			InterventionThresholdDeg: 4,
			MaxCorrection:            0.3,
		},
		Launch: LaunchConfig{
			RPMLimit:     4500,
			SpeedCeiling: 8,
		},
		DrivenWheels:     [NumWheels]bool{RearLeft: true, RearRight: true},
		WheelRadiusM:     0.33,
		MaxSteerAngleDeg: 30,
	}
}

// clamped returns a copy with every field forced into its safe range.
func (c ABSConfig) clamped() ABSConfig {
	c.SlipThreshold = clampFloat(c.SlipThreshold, 0.01, 1)
	c.ReleaseRate = clampFloat(c.ReleaseRate, 0, 1)
	c.PulseFrequencyHz = clampFloat(c.PulseFrequencyHz, 1, 100)
	return c
}

func (c TCSConfig) clamped() TCSConfig {
	c.SlipThreshold = clampFloat(c.SlipThreshold, 0.01, 0.45)
	c.MaxReduction = clampFloat(c.MaxReduction, 0, 1)
	c.ResponseTimeSec = clampFloat(c.ResponseTimeSec, 0, 2)
	return c
}

func (c ESCConfig) clamped() ESCConfig {
	c.Sensitivity = clampFloat(c.Sensitivity, 0, 5)
	c.InterventionThresholdDeg = clampFloat(c.InterventionThresholdDeg, 0.1, 45)
	c.MaxCorrection = clampFloat(c.MaxCorrection, 0, 1)
	return c
}

func (c LaunchConfig) clamped() LaunchConfig {
	c.RPMLimit = clampFloat(c.RPMLimit, 500, 20000)
	c.SpeedCeiling = clampFloat(c.SpeedCeiling, 0, 30)
	return c
}

func (c Config) clamped() Config {
	c.ABS = c.ABS.clamped()
	c.TCS = c.TCS.clamped()
	c.ESC = c.ESC.clamped()
	c.Launch = c.Launch.clamped()
	c.WheelRadiusM = clampFloat(c.WheelRadiusM, 0.05, 2)
	c.MaxSteerAngleDeg = clampFloat(c.MaxSteerAngleDeg, 5, 60)
	return c
}
