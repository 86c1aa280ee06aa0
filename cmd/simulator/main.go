package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/skywash-simulator/core"
	"github.com/signalsfoundry/skywash-simulator/internal/logging"
	"github.com/signalsfoundry/skywash-simulator/internal/missionlog"
	"github.com/signalsfoundry/skywash-simulator/internal/observability"
	"github.com/signalsfoundry/skywash-simulator/model"
	"github.com/signalsfoundry/skywash-simulator/timectrl"
)

var rootCmd = &cobra.Command{
	Use:   "skywash",
	Short: "Window-cleaning vehicle mission simulator",
	Long: `skywash runs one full cleaning mission: takeoff, facade scan, path
planning, cleaning execution and return-to-home, with battery and fluid
accounting and degraded-mode handling. Missions run against a simulation
clock and are reproducible under a fixed seed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addFlags()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SKYWASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addFlags() {
	flags := rootCmd.Flags()
	flags.String("scenario", "", "building scenario YAML; when it lists windows the probabilistic scan is skipped")
	flags.Int("scan-ticks", 60, "scan duration in logical seconds")
	flags.Int64("seed", 0, "random seed for detection (0 = time-based)")
	flags.Bool("real-time", false, "pace the mission against wall-clock time instead of running accelerated")
	flags.String("metrics-addr", "", "address to serve Prometheus /metrics on (empty = disabled)")
	flags.String("db-dir", "", "directory for the mission log database (empty = no persistence)")
	for _, name := range []string{"scenario", "scan-ticks", "seed", "real-time", "metrics-addr", "db-dir"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// missionConfig is the resolved run configuration.
type missionConfig struct {
	Scenario    *core.BuildingScenario
	ScanTicks   int
	Seed        int64
	Mode        timectrl.Mode
	MetricsAddr string
	DBDir       string
}

func configFromViper() (missionConfig, error) {
	cfg := missionConfig{
		ScanTicks:   viper.GetInt("scan-ticks"),
		Seed:        viper.GetInt64("seed"),
		Mode:        timectrl.Accelerated,
		MetricsAddr: viper.GetString("metrics-addr"),
		DBDir:       viper.GetString("db-dir"),
	}
	if viper.GetBool("real-time") {
		cfg.Mode = timectrl.RealTime
	}
	if path := viper.GetString("scenario"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open scenario %q: %w", path, err)
		}
		defer f.Close()
		scenario, err := core.LoadBuildingScenario(f)
		if err != nil {
			return cfg, err
		}
		cfg.Scenario = scenario
	}
	return cfg, nil
}

func run(ctx context.Context) error {
	log := logging.NewFromEnv()

	cfg, err := configFromViper()
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	recorders := []core.MissionRecorder{}

	var collector *observability.MissionCollector
	if cfg.MetricsAddr != "" {
		collector, err = observability.NewMissionCollector(nil)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		recorders = append(recorders, collector)
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error("metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info("serving metrics", logging.String("addr", cfg.MetricsAddr))
	}

	var store *missionlog.Store
	if cfg.DBDir != "" {
		db, err := missionlog.Open(cfg.DBDir)
		if err != nil {
			return fmt.Errorf("open mission log: %w", err)
		}
		defer db.Close()
		store, err = missionlog.Begin(db, log)
		if err != nil {
			return err
		}
		recorders = append(recorders, store)
		log.Info("recording mission", logging.String("id", store.MissionID()))
	}

	rec := core.MissionRecorder(core.NopRecorder{})
	if len(recorders) > 0 {
		rec = core.MultiRecorder(recorders...)
	}

	summary, err := fly(ctx, cfg, log, rec)
	rec.MissionEnded(summary)
	renderSummary(os.Stdout, summary)
	return err
}

// fly executes the mission sequence and always returns the summary, even
// when the mission ends in a degraded state.
func fly(ctx context.Context, cfg missionConfig, log logging.Logger, rec core.MissionRecorder) (model.MissionSummary, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	clock := timectrl.NewTimeController(time.Now().UTC(), cfg.Mode)

	opts := []core.Option{
		core.WithClock(clock),
		core.WithLogger(log),
		core.WithRecorder(rec),
		core.WithRand(rng),
	}
	profile := model.DefaultVehicleProfile()
	scanTicks := cfg.ScanTicks
	if cfg.Scenario != nil {
		profile = cfg.Scenario.Profile
		opts = append(opts, core.WithHome(cfg.Scenario.Home))
	}

	ctrl := core.NewMissionController(profile, opts...)
	if cfg.Scenario != nil && len(cfg.Scenario.Windows) > 0 {
		unique := cfg.Scenario.Seed(ctrl.Registry())
		log.Info("scenario windows loaded", logging.Int("unique", unique))
		scanTicks = 0
	}

	tracer := otel.Tracer("skywash/mission")

	phase := func(name string, op func() error) error {
		_, span := tracer.Start(ctx, name)
		defer span.End()
		return op()
	}

	if err := phase("takeoff", ctrl.Takeoff); err != nil {
		return ctrl.Summary(), err
	}
	if scanTicks > 0 {
		if err := phase("scan", func() error { return ctrl.ScanBuilding(scanTicks) }); err != nil {
			return ctrl.Summary(), err
		}
	}
	if err := phase("plan", ctrl.PlanCleaningPath); err != nil {
		if errors.Is(err, core.ErrNoWindows) {
			log.Warn("no windows found; returning home")
			if rthErr := ctrl.ReturnToHome(); rthErr != nil {
				return ctrl.Summary(), rthErr
			}
			return ctrl.Summary(), nil
		}
		return ctrl.Summary(), err
	}
	if err := phase("clean", ctrl.ExecuteCleaning); err != nil {
		// Degraded endings (emergency landing, aborted return) still
		// produce a valid summary; report them without failing the run.
		log.Warn("mission ended in degraded state", logging.String("cause", err.Error()))
	}

	// Snapshot before ground service so the report shows the levels the
	// vehicle actually came back with.
	summary := ctrl.Summary()
	phase("ground-service", func() error {
		ctrl.Recharge()
		ctrl.RefillFluid()
		return nil
	})
	return summary, nil
}

func renderSummary(out io.Writer, s model.MissionSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Mission summary")
	t.AppendRows([]table.Row{
		{"Final state", s.FinalState.String()},
		{"Windows detected", s.WindowsDetected},
		{"Windows unique", s.WindowsUnique},
		{"Windows cleaned", fmt.Sprintf("%d/%d", s.WindowsCleaned, s.WindowsUnique)},
		{"Waypoints executed", s.WaypointsExecuted},
		{"Battery remaining", fmt.Sprintf("%.1f%%", s.BatteryRemaining)},
		{"Fluid remaining", fmt.Sprintf("%.1f%%", s.FluidRemaining)},
		{"Distance flown", fmt.Sprintf("%.1f m", s.DistanceFlown)},
		{"Sim time", s.SimElapsed.Round(time.Millisecond).String()},
	})
	t.Render()
}
