package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/ovaladares/beluga"
	"github.com/ovaladares/beluga/pkg/domain"
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() (app *cli.App) {
	app = cli.NewApp()
	app.Version = DisplayVersion
	app.Name = DisplayName
	app.Usage = Usage
	app.UsageText = UsageText
	app.Action = run
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "c,config",
			Usage: ConfigUsage,
		},

		cli.StringFlag{
			Name:  FlagLoglvlKey,
			Usage: LoglvlUsage,
		},
	}

	return app
}

func run(cliCtx *cli.Context) error {
	logg := newLogger(cliCtx.String(FlagLoglvlKey))

	cnf, err := loadConfig(cliCtx.String(FlagConfigKey))
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	conf, err := cnf.belugaConfig(logg)
	if err != nil {
		return err
	}

	disc, err := beluga.NewDiscovery(conf)
	if err != nil {
		return err
	}
	defer disc.Close()

	if cnf.MetricsCnf != nil && cnf.MetricsCnf.Listen != "" {
		go serveMetrics(cnf.MetricsCnf.Listen, logg)
	}

	if err := disc.Connect(); err != nil {
		return err
	}

	printOutcome(<-disc.Outcomes())

	if cnf.ClusterCnf.RefreshCron == "" {
		return nil
	}

	scheduler := beluga.NewRefreshScheduler(disc, logg)

	if err := scheduler.Schedule(cnf.ClusterCnf.RefreshCron); err != nil {
		return err
	}

	scheduler.Start()
	defer scheduler.Stop()

	stop := signalHandler(logg)

	for {
		select {
		case msg := <-disc.Outcomes():
			printOutcome(msg)
		case <-stop:
			return nil
		}
	}
}

func printOutcome(msg domain.Msg) {
	switch outcome := msg.(type) {
	case domain.Establish:
		fmt.Printf("Best node: %s\n", outcome.Endpoint)
	case domain.Failed:
		fmt.Printf("Discovery failed: %v\n", outcome.Err)
	}
}

func serveMetrics(listen string, logg *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", beluga.MetricsHandler())

	logg.Info("Serving metrics", "listen", listen)

	if err := http.ListenAndServe(listen, mux); err != nil {
		logg.Error("Metrics server stopped", "error", err)
	}
}

func newLogger(lglvl string) *slog.Logger {
	level := slog.LevelInfo

	switch strings.ToLower(lglvl) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func signalHandler(logg *slog.Logger) <-chan bool {
	stop := make(chan bool)

	signchan := make(chan os.Signal, 1)
	signal.Notify(signchan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		// Wait for a signal. Don't care which signal it is
		sig := <-signchan
		logg.Info("Signal received, shutting down", "signal", sig.String())
		stop <- true
	}()

	return stop
}
