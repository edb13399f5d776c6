package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/config"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/retry"
	"github.com/krx-lab/meridian-trading/internal/trading"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/internal/version"
	"github.com/krx-lab/meridian-trading/pkg/utils"
)

func buildSystem(cmd *cli.Command, log *logger.Logger) (*trading.TradingSystem, *config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if cmd.Bool("dry-run") {
		cfg.DryRun = true
	}

	system, err := trading.NewTradingSystem(&cfg, clock.NewSystem(), log)
	if err != nil {
		return nil, nil, err
	}

	return system, &cfg, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	system, cfg, err := buildSystem(cmd, log)
	if err != nil {
		return err
	}
	defer system.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received interrupt signal, stopping")
		cancel()
	}()

	log.Info("Risk evaluation loop started",
		zap.Duration("interval", cfg.Risk.PollInterval()),
		zap.Bool("dry_run", cfg.DryRun),
	)

	if err := system.RunRiskLoop(ctx); err != nil && err != context.Canceled {
		return err
	}

	return nil
}

func orderAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	system, _, err := buildSystem(cmd, log)
	if err != nil {
		return err
	}
	defer system.Close()

	price := decimal.Zero
	if raw := cmd.String("price"); raw != "" {
		price, err = decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", raw, err)
		}
	}

	intent := types.OrderIntent{
		Ticker:      cmd.String("ticker"),
		Region:      types.Region(cmd.String("region")),
		Side:        types.Side(cmd.String("side")),
		Quantity:    cmd.Int("quantity"),
		TargetPrice: price,
		OrderStyle:  types.OrderStyle(cmd.String("style")),
		Sector:      cmd.String("sector"),
		Reason:      types.OrderReasonManual,
	}

	// Transient transport failures are retried here; rejections and halts
	// are terminal and surface immediately.
	var result types.OrderResult

	err = retry.DefaultPolicy().Do(ctx, func() error {
		var submitErr error
		result, submitErr = system.SubmitOrder(ctx, intent)

		return submitErr
	})
	if err != nil && !result.Success {
		printJSON(result)

		return err
	}

	return printJSON(result)
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	system, _, err := buildSystem(cmd, log)
	if err != nil {
		return err
	}
	defer system.Close()

	canTrade, tripped := system.CanTrade()

	positions, err := system.GetOpenPositions()
	if err != nil {
		return err
	}

	return printJSON(map[string]any{
		"token":            system.GetTokenStatus(),
		"can_trade":        canTrade,
		"tripped_breakers": tripped,
		"open_positions":   positions,
	})
}

func riskEvaluateAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	system, _, err := buildSystem(cmd, log)
	if err != nil {
		return err
	}
	defer system.Close()

	report, err := system.EvaluateRisk(ctx)
	if err != nil {
		return err
	}

	return printJSON(report)
}

func riskRecoverAction(_ context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	system, _, err := buildSystem(cmd, log)
	if err != nil {
		return err
	}
	defer system.Close()

	breakerType := types.BreakerType(cmd.String("breaker"))
	operator := cmd.String("operator")

	if err := system.RecoverBreaker(breakerType, operator); err != nil {
		return err
	}

	fmt.Printf("Breaker %s cleared by %s\n", breakerType, operator)

	return nil
}

func configSchemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := utils.GetSchemaFromConfig(config.Config{})
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the trading configuration file",
		Required: true,
	}
	dryRunFlag := &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Route orders through the simulated broker instead of the exchange",
	}

	cmd := &cli.Command{
		Name:    "trader",
		Usage:   "Trading engine core: order execution, token lifecycle, and risk management",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the risk evaluation loop",
				Flags:  []cli.Flag{configFlag, dryRunFlag},
				Action: runAction,
			},
			{
				Name:  "order",
				Usage: "Submit a single order",
				Flags: []cli.Flag{
					configFlag,
					dryRunFlag,
					&cli.StringFlag{Name: "ticker", Aliases: []string{"t"}, Usage: "Ticker symbol", Required: true},
					&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Usage: "Market region (KR, US, JP, HK, CN, VN)", Value: "KR"},
					&cli.StringFlag{Name: "side", Aliases: []string{"s"}, Usage: "Order side (BUY or SELL)", Required: true},
					&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Usage: "Number of shares", Required: true},
					&cli.StringFlag{Name: "price", Aliases: []string{"p"}, Usage: "Target price (required for LIMIT orders)"},
					&cli.StringFlag{Name: "style", Usage: "Order style (LIMIT or MARKET)", Value: "LIMIT"},
					&cli.StringFlag{Name: "sector", Usage: "Sector classification for exposure tracking"},
				},
				Action: orderAction,
			},
			{
				Name:   "status",
				Usage:  "Show token health, breaker state, and open positions",
				Flags:  []cli.Flag{configFlag, dryRunFlag},
				Action: statusAction,
			},
			{
				Name:  "config",
				Usage: "Configuration utilities",
				Commands: []*cli.Command{
					{
						Name:   "schema",
						Usage:  "Print the JSON schema for the configuration file",
						Action: configSchemaAction,
					},
				},
			},
			{
				Name:  "risk",
				Usage: "Risk engine operations",
				Commands: []*cli.Command{
					{
						Name:   "evaluate",
						Usage:  "Run one risk evaluation cycle",
						Flags:  []cli.Flag{configFlag, dryRunFlag},
						Action: riskEvaluateAction,
					},
					{
						Name:  "recover",
						Usage: "Clear a tripped circuit breaker",
						Flags: []cli.Flag{
							configFlag,
							dryRunFlag,
							&cli.StringFlag{Name: "breaker", Usage: "Breaker type to clear", Required: true},
							&cli.StringFlag{Name: "operator", Usage: "Operator identity for the audit trail", Required: true},
						},
						Action: riskRecoverAction,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
