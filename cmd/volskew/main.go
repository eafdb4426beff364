package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"volskew/internal/app"
	"volskew/internal/config"
	"volskew/internal/display"
	"volskew/internal/marketdata"
	"volskew/internal/prompt"
	"volskew/internal/provider"
)

var rootCmd = &cobra.Command{
	Use:   "volskew",
	Short: "Plot the implied volatility skew of an option chain",
	Long: `volskew asks for a ticker, an option side (calls, puts or both) and a maturity,
cleans the option chain of illiquid quotes and plots implied volatility against K/S.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := loadConfig(cmd)
		p, err := newProvider(cfg)
		if err != nil {
			log.Fatalf("error creating provider: %v", err)
		}

		a := &app.App{
			Provider: p,
			Prompter: prompt.New(),
			Display: display.New(display.Config{
				Mode:       cfg.Display.Mode,
				Addr:       cfg.Display.Addr,
				ChromePath: cfg.Display.ChromePath,
			}),
			Filter:         filter(cfg),
			MaxStrikeRatio: cfg.Skew.MaxStrikeRatio,
		}
		if err := a.Run(ctx); err != nil {
			log.Fatalf("error running session: %v", err)
		}
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain TICKER",
	Short: "Print the cleaned option chain of one maturity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sideStr, err := cmd.Flags().GetString("side")
		if err != nil {
			log.Fatalf("error getting side: %v", err)
		}
		side, ok := provider.ParseSide(sideStr)
		if !ok {
			log.Fatalf("invalid side %q: choose calls or puts", sideStr)
		}
		maturity, err := cmd.Flags().GetString("maturity")
		if err != nil {
			log.Fatalf("error getting maturity: %v", err)
		}

		cfg := loadConfig(cmd)
		p, err := newProvider(cfg)
		if err != nil {
			log.Fatalf("error creating provider: %v", err)
		}

		a := &app.App{Provider: p, Filter: filter(cfg), MaxStrikeRatio: cfg.Skew.MaxStrikeRatio}
		if err := a.PrintChain(ctx, args[0], side, maturity, os.Stdout); err != nil {
			log.Fatalf("error printing chain: %v", err)
		}
	},
}

func loadConfig(cmd *cobra.Command) config.Config {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		log.Fatalf("error getting config: %v", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.Log.Level, err)
	}
	log.SetLevel(level)
	log.AddHook(runIDHook{id: uuid.NewString()})
	return cfg
}

func filter(cfg config.Config) marketdata.Filter {
	return marketdata.Filter{
		MinImpliedVolatility: cfg.Cleaning.MinImpliedVolatility,
		MaxRelativeSpread:    cfg.Cleaning.MaxRelativeSpread,
	}
}

// runIDHook stamps every entry of one invocation with the same run_id.
type runIDHook struct{ id string }

func (h runIDHook) Levels() []log.Level { return log.AllLevels }

func (h runIDHook) Fire(e *log.Entry) error {
	e.Data["run_id"] = h.id
	return nil
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a JSON or YAML config file. Defaults to volskew.json in the working directory, if present.")
	chainCmd.Flags().StringP("side", "s", "calls", "Option side to print: calls or puts.")
	chainCmd.Flags().StringP("maturity", "m", "", "Maturity to print, formatted YYYY-MM-DD. Defaults to the nearest one.")
	rootCmd.AddCommand(chainCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("error executing command: %v", err)
	}
}
