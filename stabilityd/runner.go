package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.einride.tech/can"

	"vsc-core/stability"
	"vsc-core/utils"
)

// Frame names the bridge exchanges with the vehicle bus.
const (
	frameVehicleState1 = "VEHICLE_STATE_1"
	frameVehicleState2 = "VEHICLE_STATE_2"
	frameWheelState1   = "WHEEL_STATE_1"
	frameWheelState2   = "WHEEL_STATE_2"
	frameDriverInput   = "DRIVER_INPUT_1"
	frameStabilityCmd1 = "STABILITY_CMD_1"
	frameStabilityCmd2 = "STABILITY_CMD_2"
)

// rxStaleAfter is how long the bridge tolerates missing bus input before
// warning; corrections are still transmitted (they decay toward neutral as
// the stale snapshot reads zero slip).
const rxStaleAfter = 500 * time.Millisecond

type RunnerConfig struct {
	Interface   string
	MapPath     string
	ProfilePath string
}

// busState is the latest decoded vehicle state, assembled from several
// frames. Updated only by the Run loop.
type busState struct {
	snap   stability.VehicleSnapshot
	lastRx time.Time
}

// Runner bridges the stability engine onto a CAN bus: it assembles
// snapshots from received state frames, ticks the engine on the command
// frame's cycle time, and transmits the correction record.
type Runner struct {
	cfg     RunnerConfig
	log     *utils.Logger
	smap    *utils.SignalMap
	profile Profile
	engine  *stability.Engine
	writer  utils.FrameWriter
	reader  utils.FrameReader
	cmd1    *utils.FrameDef

	bus  busState
	prev stability.Corrections
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	smap, err := utils.LoadSignalMap(cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("load signal map: %w", err)
	}

	profile, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	cmd1, err := smap.FrameByName(frameStabilityCmd1)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	if cmd1.CycleMS <= 0 {
		return nil, fmt.Errorf("frame %s has invalid cycle_ms %d", cmd1.Name, cmd1.CycleMS)
	}

	writer, err := utils.NewSocketCANWriter(ctx, cfg.Interface)
	if err != nil {
		return nil, err
	}
	reader, err := utils.NewSocketCANReader(ctx, cfg.Interface)
	if err != nil {
		writer.Close()
		return nil, err
	}

	r := &Runner{
		cfg:     cfg,
		log:     log,
		smap:    smap,
		profile: profile,
		engine:  stability.NewEngine(profile.EngineConfig()),
		writer:  writer,
		reader:  reader,
		cmd1:    cmd1,
	}
	r.bus.snap = stability.VehicleSnapshot{
		Forward:     stability.Vec3{X: 1},
		MassKg:      profile.Vehicle.MassKg,
		WheelbaseM:  profile.Vehicle.WheelbaseM,
		TrackWidthM: profile.Vehicle.TrackWidthM,
	}
	return r, nil
}

func (r *Runner) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	cfg := r.engine.Config()
	r.log.Info("Starting bridge: iface=%s cycle_ms=%d profile=%s abs=%v tcs=%v esc=%v lc=%v",
		r.cfg.Interface, r.cmd1.CycleMS, r.cfg.ProfilePath,
		cfg.ABSEnabled, cfg.TCSEnabled, cfg.ESCEnabled, cfg.LaunchControlEnabled)

	ticker := time.NewTicker(time.Duration(r.cmd1.CycleMS) * time.Millisecond)
	defer ticker.Stop()

	dt := float64(r.cmd1.CycleMS) / 1000.0
	rxChan := make(chan can.Frame, 100)
	go r.receiveLoop(ctx, rxChan)

	var sent uint64
	warnedStale := false

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping bridge")
			r.log.Info("Completed bridge. frames_sent=%d", sent)
			return ctx.Err()

		case frame := <-rxChan:
			r.applyFrame(frame)

		case now := <-ticker.C:
			if age := now.Sub(r.bus.lastRx); age > rxStaleAfter {
				if !warnedStale && !r.bus.lastRx.IsZero() {
					r.log.Warn("No bus input for %.0f ms; corrections based on a stale snapshot", age.Seconds()*1000)
					warnedStale = true
				}
			} else {
				warnedStale = false
			}

			snap := r.bus.snap
			corr := r.engine.Update(&snap, dt)
			logInterventionEdges(r.log, float64(sent)*dt, &r.prev, &corr)
			r.prev = corr

			if err := r.transmit(ctx, &corr); err != nil {
				r.log.Critical("Transmit failed: %v", err)
				return err
			}
			sent++

			if sent%100 == 0 {
				diag := r.engine.Diagnostics()
				r.log.Debug("tick=%d v=%.2f yaw_err=%.3f thr_mult=%.2f tcs=%.2f",
					sent, snap.SpeedMS, diag.YawRateError, corr.ThrottleMultiplier, diag.TCSIntervention)
			}
		}
	}
}

// applyFrame folds one received frame into the working snapshot. Unknown
// frames are ignored; the bus carries traffic that is not ours.
func (r *Runner) applyFrame(frame can.Frame) {
	vals, err := r.smap.Decode(frame)
	if err != nil {
		r.log.Trace("RX unknown id=0x%X", uint32(frame.ID))
		return
	}
	snap := &r.bus.snap

	switch frame.ID {
	case mustFrameID(r.smap, frameVehicleState1):
		speed := vals["vehicle_speed_mps"]
		snap.SpeedMS = speed
		snap.AngularVelRadPS.Z = vals["yaw_rate_radps"]
		snap.VelocityMPS = stability.Vec3{
			X: speed * snap.Forward.X,
			Y: speed*snap.Forward.Y + vals["lateral_vel_mps"],
		}
	case mustFrameID(r.smap, frameVehicleState2):
		snap.RPM = vals["engine_rpm"]
		snap.Gear = int(math.Round(vals["gear"]))
	case mustFrameID(r.smap, frameWheelState1):
		applyAxle(snap, stability.FrontLeft, stability.FrontRight, "fl", "fr", vals)
	case mustFrameID(r.smap, frameWheelState2):
		applyAxle(snap, stability.RearLeft, stability.RearRight, "rl", "rr", vals)
	case mustFrameID(r.smap, frameDriverInput):
		snap.Throttle = vals["throttle_pos"]
		snap.Brake = vals["brake_pos"]
		snap.Steer = vals["steer_pos"]
		snap.Clutch = vals["clutch_pos"]
	default:
		return
	}
	r.bus.lastRx = time.Now()
}

func applyAxle(snap *stability.VehicleSnapshot, left, right int, lp, rp string, vals map[string]float64) {
	snap.Wheels[left] = stability.WheelContact{
		AngularSpeedRadPS: vals[lp+"_wheel_speed_radps"],
		Grounded:          vals[lp+"_grounded"] > 0.5,
		NormalForceN:      vals[lp+"_normal_force_n"],
	}
	snap.Wheels[right] = stability.WheelContact{
		AngularSpeedRadPS: vals[rp+"_wheel_speed_radps"],
		Grounded:          vals[rp+"_grounded"] > 0.5,
		NormalForceN:      vals[rp+"_normal_force_n"],
	}
}

// transmit encodes the correction record into the two command frames.
func (r *Runner) transmit(ctx context.Context, corr *stability.Corrections) error {
	cmd1, err := r.smap.Encode(frameStabilityCmd1, map[string]float64{
		"brake_mult_fl": corr.BrakeMultiplier[stability.FrontLeft],
		"brake_mult_fr": corr.BrakeMultiplier[stability.FrontRight],
		"brake_mult_rl": corr.BrakeMultiplier[stability.RearLeft],
		"brake_mult_rr": corr.BrakeMultiplier[stability.RearRight],
		"abs_active":    boolSignal(corr.ABSActive),
		"tcs_active":    boolSignal(corr.TCSActive),
		"esc_active":    boolSignal(corr.ESCActive),
		"lc_active":     boolSignal(corr.LaunchControlActive),
	})
	if err != nil {
		return err
	}
	cmd2, err := r.smap.Encode(frameStabilityCmd2, map[string]float64{
		"throttle_mult":    corr.ThrottleMultiplier,
		"steer_correction": corr.SteeringCorrection,
	})
	if err != nil {
		return err
	}

	if err := r.writer.WriteFrame(ctx, cmd1); err != nil {
		return err
	}
	return r.writer.WriteFrame(ctx, cmd2)
}

// receiveLoop pushes every received frame to the Run loop.
func (r *Runner) receiveLoop(ctx context.Context, out chan<- can.Frame) {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Error("RX error: %v", err)
			continue
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return
		default:
			// Channel full; drop rather than stall the bus reader.
		}
	}
}

func mustFrameID(m *utils.SignalMap, name string) uint32 {
	fd, err := m.FrameByName(name)
	if err != nil {
		return 0
	}
	return fd.ID
}

func boolSignal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
