package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"vsc-core/utils"
)

func main() {
	var (
		mode     = flag.String("mode", "sim", "sim (offline scenario) or live (CAN bridge)")
		iface    = flag.String("iface", "vcan0", "SocketCAN interface name")
		mapPath  = flag.String("map", "config/can/can_map.csv", "Path to can_map.csv")
		profile  = flag.String("profile", "config/vehicle.json", "Vehicle profile JSON (live mode)")
		scenPath = flag.String("scenario", "scenarios/launch_abs_demo.json", "Scenario JSON file (sim mode)")
		outPath  = flag.String("out", "trace.csv", "CSV trace output (sim mode)")
		logLevel = flag.String("log", "info", "trace|debug|info|warn|error|critical")
	)
	flag.Parse()

	log, err := utils.NewFileLogger("stabilityd.log", utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open stabilityd.log: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "sim":
		scen, err := LoadScenario(*scenPath)
		if err != nil {
			log.Critical("Load scenario failed: %v", err)
			os.Exit(1)
		}
		if err := Simulate(&scen, *outPath, log); err != nil {
			log.Critical("Simulation failed: %v", err)
			os.Exit(1)
		}

	case "live":
		runner, err := NewRunner(ctx, RunnerConfig{
			Interface:   *iface,
			MapPath:     *mapPath,
			ProfilePath: *profile,
		}, log)
		if err != nil {
			log.Critical("Startup failed: %v", err)
			os.Exit(1)
		}
		defer runner.Close()

		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			log.Critical("Run failed: %v", err)
			os.Exit(1)
		}

	default:
		log.Critical("Unknown mode %q", *mode)
		os.Exit(1)
	}
}
