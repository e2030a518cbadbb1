// uswap-quote prints a one-shot swap quote against live bridge pools.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/config"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/liquidity"
	"github.com/uswap-new/uiuswap.github.io/internal/pricing"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (optional)")
	amountStr := flag.String("amount", "", "input amount")
	from := flag.String("from", string(types.TokenHive), "input token: HIVE or SWAP.HIVE")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			logger.Fatal("failed to load config", zap.Error(err))
		}
	}

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		logger.Fatal("invalid -amount", zap.String("amount", *amountStr), zap.Error(err))
	}
	tokenIn := types.Token(*from)
	if tokenIn != types.TokenHive && tokenIn != types.TokenSwapHive {
		logger.Fatal("invalid -from token", zap.String("from", *from))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	primary := ledger.NewHiveClient(cfg.Primary.RPCURL, cfg.PrimaryTimeout(), logger)
	side := ledger.NewEngineClient(cfg.Side.RPCURL, cfg.Side.HistoryURL, cfg.SideTimeout(), logger)

	feeCfg := pricing.FetchFeeConfig(ctx, cfg.Fee.ConfigURL, cfg.PrimaryTimeout(), cfg.Retry.MaxAttempts, cfg.RetryBaseDelay(), logger)
	engine := pricing.NewEngine(feeCfg)

	refresher := liquidity.NewRefresher(engine, primary, side, cfg.BridgeAccount, cfg.LiquidityRefresh(), cfg.Retry.MaxAttempts, cfg.RetryBaseDelay(), logger)
	if err := refresher.RefreshNow(ctx); err != nil {
		logger.Fatal("failed to fetch bridge pools", zap.Error(err))
	}

	q := engine.Quote(amount, tokenIn, cfg.Swap.SlippageBps)
	if q.Zero() {
		fmt.Fprintln(os.Stderr, "no quote: amount must be positive and pools non-empty")
		os.Exit(1)
	}

	pools := engine.Pools()
	fmt.Printf("pools:        %s %s / %s %s\n",
		pools.PrimaryPoolSize.String(), types.TokenHive,
		pools.SidePoolSize.String(), types.TokenSwapHive)
	fmt.Printf("amount in:    %s %s\n", q.AmountIn.String(), q.TokenIn)
	fmt.Printf("expected out: %s %s\n", q.ExpectedOut.StringFixed(3), q.TokenOut)
	fmt.Printf("fee:          %s %s (%s%%)\n", q.FeeAmount.String(), q.TokenIn, q.FeePercent.String())
	fmt.Printf("min receive:  %s %s (slippage %d bps)\n", q.MinReceive.StringFixed(3), q.TokenOut, q.SlippageBps)
}
