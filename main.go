package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/cpap-support-agent/server/internal/app"
	"github.com/cpap-support-agent/server/internal/config"
	"github.com/cpap-support-agent/server/internal/evaluation"
	"github.com/cpap-support-agent/server/internal/server"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

type Options struct {
	EnvFile string `short:"e" long:"env-file" default:".env" description:"dotenv file loaded before reading the environment"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("serve", "Serve the agent", "Serve the HTTP API and the web chat UI", &ServeCommand{})
	parser.AddCommand("evaluate", "Run the evaluation scenarios", "Run every evaluation scenario against the agent and print a summary", &EvaluateCommand{})
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// bootstrap loads configuration and initialises logging.
func bootstrap() (config.AppConfig, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		logx.Init()
		logx.Error().Err(err).Msg("Failed to load configuration")
		return cfg, err
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
	return cfg, nil
}

type ServeCommand struct {
	Addr string `short:"a" long:"addr" description:"listen address (overrides SERVER_ADDR)"`
}

func (c *ServeCommand) Execute(_ []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to build agent")
		return err
	}
	defer a.Close()

	return server.New(cfg.Server, a.Runner).ListenAndServe(ctx)
}

type EvaluateCommand struct {
	Scenarios string `short:"s" long:"scenarios" description:"scenario file (overrides EVAL_SCENARIOS_PATH)"`
}

func (c *EvaluateCommand) Execute(_ []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	path := cfg.Evaluation.ScenariosPath
	if c.Scenarios != "" {
		path = c.Scenarios
	}

	fmt.Println("--- Starting Agent Evaluation Workflow ---")
	scenarios, err := evaluation.LoadScenarios(path)
	if err != nil {
		// Nothing runs and no report is printed when the scenarios are unavailable.
		logx.Error().Err(err).Str("path", path).Msg("Error loading scenarios")
		return nil
	}
	if len(scenarios) == 0 {
		logx.Warn().Str("path", path).Msg("No scenarios to run")
		return nil
	}
	fmt.Printf("Loaded %d scenarios.\n", len(scenarios))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to build agent")
		return err
	}
	defer a.Close()

	report := evaluation.NewHarness(a.Runner).Run(ctx, scenarios)
	return report.Render(os.Stdout)
}
