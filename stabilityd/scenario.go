package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"vsc-core/stability"
)

// VehicleParams is the static body geometry fed into every snapshot.
type VehicleParams struct {
	MassKg      float64 `json:"mass_kg"`
	WheelbaseM  float64 `json:"wheelbase_m"`
	TrackWidthM float64 `json:"track_width_m"`
}

// Profile bundles the body geometry with the engine configuration for one
// vehicle class. Control may be omitted, in which case defaults apply.
type Profile struct {
	Vehicle VehicleParams     `json:"vehicle"`
	Control *stability.Config `json:"control,omitempty"`
}

// EngineConfig returns the profile's control configuration or the default.
func (p *Profile) EngineConfig() stability.Config {
	if p.Control != nil {
		return *p.Control
	}
	return stability.DefaultConfig()
}

// LoadProfile loads a vehicle profile from a JSON file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read file: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.Vehicle.MassKg <= 0 {
		return fmt.Errorf("invalid mass_kg: %f", p.Vehicle.MassKg)
	}
	if p.Vehicle.WheelbaseM <= 0 {
		return fmt.Errorf("invalid wheelbase_m: %f", p.Vehicle.WheelbaseM)
	}
	return nil
}

// Scenario is an offline test drive: a vehicle profile plus a timeline of
// driving states played through the engine at a fixed dt.
type Scenario struct {
	Meta     ScenarioMeta   `json:"meta"`
	Timing   ScenarioTiming `json:"timing"`
	Profile  Profile        `json:"profile"`
	Defaults DrivingState   `json:"defaults"`
	Segments []Segment      `json:"segments"`
}

// ScenarioMeta carries scenario identification.
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// ScenarioTiming defines the fixed timestep and total duration.
type ScenarioTiming struct {
	DtS       float64 `json:"dt_s"`
	DurationS float64 `json:"duration_s"`
}

// DrivingState is the synthetic vehicle state during one segment.
type DrivingState struct {
	SpeedMPS     float64                        `json:"speed_mps"`
	YawRateRadPS float64                        `json:"yaw_rate_radps"`
	SlipAngleDeg float64                        `json:"slip_angle_deg"`
	Throttle     float64                        `json:"throttle"`
	Brake        float64                        `json:"brake"`
	Steer        float64                        `json:"steer"`
	Gear         int                            `json:"gear"`
	RPM          float64                        `json:"rpm"`
	WheelSlip    [stability.NumWheels]float64   `json:"wheel_slip"`
	Airborne     [stability.NumWheels]bool      `json:"airborne"`
}

// Segment holds a driving state over [T0, T1). T1 < 0 means "until the end".
type Segment struct {
	T0      float64      `json:"t0"`
	T1      float64      `json:"t1"`
	State   DrivingState `json:"state"`
	Comment string       `json:"comment,omitempty"`
}

// LoadScenario loads and validates a scenario from a JSON file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}

	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	if scen.Timing.DtS <= 0 {
		return Scenario{}, fmt.Errorf("invalid dt_s: %f", scen.Timing.DtS)
	}
	if err := scen.Profile.validate(); err != nil {
		return Scenario{}, err
	}
	return scen, nil
}

// EvalState returns the driving state at time t: the first matching
// segment's state wholesale, or the defaults when none matches.
func EvalState(scen *Scenario, t float64) DrivingState {
	for _, seg := range scen.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = scen.Timing.DurationS
		}
		if t >= seg.T0 && t < t1 {
			return seg.State
		}
	}
	return scen.Defaults
}

// BuildSnapshot synthesizes the solver-side snapshot for a driving state.
// The body heads along +X; a positive slip angle means the velocity points
// right of the heading.
func BuildSnapshot(st *DrivingState, veh *VehicleParams, cfg *stability.Config) stability.VehicleSnapshot {
	slipAngle := st.SlipAngleDeg * math.Pi / 180

	snap := stability.VehicleSnapshot{
		VelocityMPS: stability.Vec3{
			X: st.SpeedMPS * math.Cos(slipAngle),
			Y: -st.SpeedMPS * math.Sin(slipAngle),
		},
		AngularVelRadPS: stability.Vec3{Z: st.YawRateRadPS},
		Forward:         stability.Vec3{X: 1},
		SpeedMS:         st.SpeedMPS,
		Throttle:        st.Throttle,
		Brake:           st.Brake,
		Steer:           st.Steer,
		Gear:            st.Gear,
		RPM:             st.RPM,
		MassKg:          veh.MassKg,
		WheelbaseM:      veh.WheelbaseM,
		TrackWidthM:     veh.TrackWidthM,
	}

	perWheelLoad := veh.MassKg * 9.81 / stability.NumWheels
	for i := 0; i < stability.NumWheels; i++ {
		snap.Wheels[i] = stability.WheelContact{
			AngularSpeedRadPS: st.SpeedMPS * (1 + st.WheelSlip[i]) / cfg.WheelRadiusM,
			Grounded:          !st.Airborne[i],
			NormalForceN:      perWheelLoad,
		}
	}
	return snap
}
