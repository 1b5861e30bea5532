package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"vsc-core/stability"
	"vsc-core/utils"
)

var traceColumns = []string{
	"t_s", "speed_mps", "throttle_in", "brake_in", "steer_in",
	"brake_mult_fl", "brake_mult_fr", "brake_mult_rl", "brake_mult_rr",
	"throttle_mult", "steer_correction",
	"abs_active", "tcs_active", "esc_active", "lc_active",
	"desired_yaw_radps", "actual_yaw_radps", "yaw_error_radps",
	"tcs_intervention",
}

// Simulate plays a scenario through a fresh engine at the scenario's fixed
// dt and writes one CSV row per tick. The run is fully deterministic.
func Simulate(scen *Scenario, outPath string, log *utils.Logger) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write(traceColumns); err != nil {
		return err
	}

	cfg := scen.Profile.EngineConfig()
	eng := stability.NewEngine(cfg)

	log.Info("Simulating scenario=%s dt=%.4fs duration=%.2fs",
		scen.Meta.Name, scen.Timing.DtS, scen.Timing.DurationS)

	dt := scen.Timing.DtS
	ticks := int(scen.Timing.DurationS/dt + 0.5)
	var prev stability.Corrections

	for i := 0; i < ticks; i++ {
		t := float64(i) * dt
		st := EvalState(scen, t)
		snap := BuildSnapshot(&st, &scen.Profile.Vehicle, &cfg)

		corr := eng.Update(&snap, dt)
		logInterventionEdges(log, t, &prev, &corr)
		prev = corr

		diag := eng.Diagnostics()
		row := []string{
			ftoa(t), ftoa(st.SpeedMPS), ftoa(st.Throttle), ftoa(st.Brake), ftoa(st.Steer),
			ftoa(corr.BrakeMultiplier[stability.FrontLeft]),
			ftoa(corr.BrakeMultiplier[stability.FrontRight]),
			ftoa(corr.BrakeMultiplier[stability.RearLeft]),
			ftoa(corr.BrakeMultiplier[stability.RearRight]),
			ftoa(corr.ThrottleMultiplier), ftoa(corr.SteeringCorrection),
			btoa(corr.ABSActive), btoa(corr.TCSActive), btoa(corr.ESCActive), btoa(corr.LaunchControlActive),
			ftoa(diag.DesiredYawRate), ftoa(diag.ActualYawRate), ftoa(diag.YawRateError),
			ftoa(diag.TCSIntervention),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	log.Info("Completed simulation. ticks=%d trace=%s", ticks, outPath)
	return nil
}

// logInterventionEdges emits one line whenever an active flag toggles.
func logInterventionEdges(log *utils.Logger, t float64, prev, cur *stability.Corrections) {
	edge := func(name string, was, is bool) {
		if was != is {
			log.Info("t=%.3f %s %s", t, name, onOff(is))
		}
	}
	edge("ABS", prev.ABSActive, cur.ABSActive)
	edge("TCS", prev.TCSActive, cur.TCSActive)
	edge("ESC", prev.ESCActive, cur.ESCActive)
	edge("LaunchControl", prev.LaunchControlActive, cur.LaunchControlActive)
}

func onOff(b bool) string {
	if b {
		return "engaged"
	}
	return "released"
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', 9, 64)
}

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
