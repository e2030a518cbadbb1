package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uswap-new/uiuswap.github.io/internal/balance"
	"github.com/uswap-new/uiuswap.github.io/internal/config"
	"github.com/uswap-new/uiuswap.github.io/internal/history"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/liquidity"
	"github.com/uswap-new/uiuswap.github.io/internal/metrics"
	"github.com/uswap-new/uiuswap.github.io/internal/pricing"
	"github.com/uswap-new/uiuswap.github.io/internal/signing"
	"github.com/uswap-new/uiuswap.github.io/internal/swap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.User == "" {
		logger.Fatal("config: user account is required")
	}
	if !balance.ValidUsername(cfg.User) {
		logger.Fatal("config: user does not match the account grammar", zap.String("user", cfg.User))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("received signal, shutting down...")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger)

	primary := ledger.NewHiveClient(cfg.Primary.RPCURL, cfg.PrimaryTimeout(), logger)
	side := ledger.NewEngineClient(cfg.Side.RPCURL, cfg.Side.HistoryURL, cfg.SideTimeout(), logger)
	signer := signing.NewHTTPSigner(cfg.Signer.URL, cfg.SignerTimeout(), logger)

	feeCfg := pricing.FetchFeeConfig(ctx, cfg.Fee.ConfigURL, cfg.PrimaryTimeout(), cfg.Retry.MaxAttempts, cfg.RetryBaseDelay(), logger)
	logger.Info("fee curve loaded",
		zap.String("base_fee", feeCfg.BaseFee.String()),
		zap.String("min_base_fee", feeCfg.MinBaseFee.String()),
		zap.String("diff_coefficient", feeCfg.DiffCoefficient.String()),
		zap.String("base_price", feeCfg.BasePrice.String()))

	engine := pricing.NewEngine(feeCfg)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	store := history.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Swap.HistoryCap)

	cache := balance.NewCache(primary, side, cfg.BalanceTTL(), cfg.BalanceDebounce(), cfg.Retry.MaxAttempts, cfg.RetryBaseDelay(), logger)
	manager := swap.NewManager(cfg, engine, cache, store, signer, primary, side, logger)

	refresher := liquidity.NewRefresher(engine, primary, side, cfg.BridgeAccount, cfg.LiquidityRefresh(), cfg.Retry.MaxAttempts, cfg.RetryBaseDelay(), logger)
	go refresher.Run(ctx)

	// pull-based reconciliation, retriggered on an interval
	go func() {
		t := time.NewTicker(cfg.ResolveEvery())
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				manager.ResolvePending(ctx)
			}
		}
	}()

	logger.Info("uswap client started",
		zap.String("user", cfg.User),
		zap.String("bridge_account", cfg.BridgeAccount))

	<-ctx.Done()
	logger.Info("uswap client finished")
}
