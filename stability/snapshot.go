package stability

import "math"

// Wheel indices used by every per-wheel array in this package.
const (
	FrontLeft = iota
	FrontRight
	RearLeft
	RearRight
	NumWheels
)

// Vec3 is a world-space vector, Z up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dot returns the dot product with w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// WheelContact is one wheel's pre-resolved contact sample from the solver.
type WheelContact struct {
	AngularSpeedRadPS float64 `json:"angular_speed_radps"`
	Grounded          bool    `json:"grounded"`
	NormalForceN      float64 `json:"normal_force_n"`
}

// VehicleSnapshot is the per-tick input from the physics solver. It is
// read-only to the engine; the solver constructs a fresh one every tick.
//
// Sign convention: positive steering input and positive yaw rate both mean
// rightward rotation viewed from above.
type VehicleSnapshot struct {
	// Kinematics
	VelocityMPS     Vec3    // world-space linear velocity
	AngularVelRadPS Vec3    // world-space angular velocity; Z is the yaw axis
	Forward         Vec3    // unit body-forward vector in world space
	SpeedMS         float64 // signed speed along the heading, m/s

	// Driver inputs, normalized
	Throttle float64 // 0..1
	Brake    float64 // 0..1
	Steer    float64 // -1..1, positive = right
	Clutch   float64 // 0..1

	// Drivetrain
	Gear int     // 0 = neutral/reverse sentinel, >0 = forward gear
	RPM  float64 // engine speed

	// Contacts, indexed FrontLeft..RearRight
	Wheels [NumWheels]WheelContact

	// Body geometry
	MassKg      float64
	WheelbaseM  float64
	TrackWidthM float64
}

// YawRateRadPS returns the body yaw rate about the vertical axis. The
// world-space Z component is used directly; the bicycle reference model
// assumes near-zero roll, so no roll/pitch normalization is applied.
func (s *VehicleSnapshot) YawRateRadPS() float64 {
	return s.AngularVelRadPS.Z
}

// Corrections is the frozen per-tick output handed to the force-application
// layer: multiply each wheel's brake torque by BrakeMultiplier, motor torque
// by ThrottleMultiplier, and add SteeringCorrection to the resolved steering
// angle. The active flags are for UI/telemetry only.
type Corrections struct {
	BrakeMultiplier     [NumWheels]float64 `json:"brake_multiplier"`
	ThrottleMultiplier  float64            `json:"throttle_multiplier"`
	SteeringCorrection  float64            `json:"steering_correction"`
	ABSActive           bool               `json:"abs_active"`
	TCSActive           bool               `json:"tcs_active"`
	ESCActive           bool               `json:"esc_active"`
	LaunchControlActive bool               `json:"launch_control_active"`
}

// neutralCorrections is the all-default record: no intervention.
func neutralCorrections() Corrections {
	return Corrections{
		BrakeMultiplier:    [NumWheels]float64{1, 1, 1, 1},
		ThrottleMultiplier: 1,
	}
}

// SlipSample is one wheel's slip state, recomputed every tick.
type SlipSample struct {
	Ratio    float64 // unsigned longitudinal slip ratio, clamped to [0, 2]
	Combined float64 // combined slip magnitude including the lateral component
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
