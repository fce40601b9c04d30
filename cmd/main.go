package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maddsua/pichecker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type CliFlags struct {
	Cfg      *string
	Debug    *bool
	JsonLogs *bool
}

func main() {

	godotenv.Load()

	cli := CliFlags{
		Cfg:      flag.String("cfg", "", "config file location"),
		Debug:    flag.Bool("debug", false, "enable debug logging"),
		JsonLogs: flag.Bool("json_logs", false, "log in json format"),
	}
	flag.Parse()

	if os.Getenv("DEBUG") == "true" || *cli.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if os.Getenv("LOGFMT") == "json" || *cli.JsonLogs {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	if *cli.Cfg == "" {
		if loc, has := FindConfig([]string{
			"./pichecker.yml",
			"/etc/pichecker/pichecker.yml",
		}); has {
			cli.Cfg = &loc
		}
	}

	cfg := &FileConfig{}

	if *cli.Cfg != "" {

		loaded, err := LoadConfigFile(*cli.Cfg)
		if err != nil {
			slog.Error("Failed to load config",
				slog.String("err", err.Error()))
			os.Exit(1)
		}

		slog.Info("Config file located",
			slog.String("at", *cli.Cfg))

		cfg = loaded

	} else {
		slog.Warn("No config files found, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Failed to validate config",
			slog.String("err", err.Error()))
		os.Exit(1)
	}

	checks, err := selectChecks(cfg.Probes)
	if err != nil {
		slog.Error("Failed to load probes",
			slog.String("err", err.Error()))
		os.Exit(1)
	}

	writers := []pichecker.StatusWriter{&StdoutWriter{}}

	if cfg.Pushgateway.Url != "" {

		hostname, _ := os.Hostname()

		pushgateway, err := pichecker.NewPushgatewayWriter(cfg.Pushgateway.Url, cfg.Pushgateway.ProxyUrl, hostname)
		if err != nil {
			slog.Error("Failed to set up prometheus push gateway writer",
				slog.String("err", err.Error()))
			os.Exit(1)
		}

		writers = append(writers, pushgateway)
	}

	for _, writer := range writers {
		slog.Info("USING WRITER",
			slog.String("type", writer.Type()),
			slog.String("version", writer.Version()))
	}

	exporter, err := otelprom.New()
	if err != nil {
		slog.Error("Failed to set up metrics exporter",
			slog.String("err", err.Error()))
		os.Exit(1)
	}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(meterProvider)

	metrics, err := pichecker.NewMetrics(meterProvider.Meter(pichecker.MeterName))
	if err != nil {
		slog.Error("Failed to set up metrics",
			slog.String("err", err.Error()))
		os.Exit(1)
	}

	for _, check := range checks {
		slog.Info("Add probe",
			slog.String("label", check.Label),
			slog.String("command", check.Command))
	}

	taskhost := &pichecker.TaskHost{
		Checks:   checks,
		Executor: &pichecker.ShellExecutor{},
		Runner:   pichecker.Runner{Severity: pichecker.SeverityWarning},
		Interval: time.Duration(cfg.Interval),
		Timeout:  time.Duration(cfg.Timeout),
		Autorun:  cfg.Autorun,
		Writers:  writers,
		Metrics:  metrics,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {

		exit := make(chan os.Signal, 2)
		signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

		<-exit
		cancel()
		slog.Warn("Shutting down...")
	}()

	if cfg.Web.Enabled {

		srv := &http.Server{
			Addr: cfg.Web.Listen,
			Handler: &WebExporter{
				Name:     cfg.Name,
				Location: cfg.Location,
				Source:   taskhost,
				Metrics:  promhttp.Handler(),
			},
		}

		go func() {

			slog.Info("Web exporter listening",
				slog.String("addr", cfg.Web.Listen))

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Web exporter failed",
					slog.String("err", err.Error()))
				cancel()
			}
		}()

		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Starting probes",
		slog.String("name", cfg.Name),
		slog.String("location", cfg.Location),
		slog.Duration("interval", time.Duration(cfg.Interval)),
		slog.Bool("autorun", cfg.Autorun))

	if err := taskhost.Run(ctx); err != nil {
		slog.Error("Task host failed",
			slog.String("err", err.Error()))
	}

	if err := meterProvider.Shutdown(context.Background()); err != nil {
		slog.Debug("Metrics shutdown",
			slog.String("err", err.Error()))
	}
}
