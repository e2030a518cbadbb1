package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type LedgerCfg struct {
	RPCURL     string `yaml:"rpc_url"`
	HistoryURL string `yaml:"history_url"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type SignerCfg struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type FeeCfg struct {
	ConfigURL string `yaml:"config_url"`
}

type SwapCfg struct {
	MinAmount      float64 `yaml:"min_amount"`
	SlippageBps    int     `yaml:"slippage_bps"`
	HistoryCap     int     `yaml:"history_cap"`
	MinResolveAgeS int     `yaml:"min_resolve_age_s"`
	MaxResolveAgeS int     `yaml:"max_resolve_age_s"`
	ResolveEveryMs int     `yaml:"resolve_every_ms"`
}

type BalanceCfg struct {
	TTLMs      int `yaml:"ttl_ms"`
	DebounceMs int `yaml:"debounce_ms"`
}

type LiquidityCfg struct {
	RefreshMs int `yaml:"refresh_ms"`
}

type RedisCfg struct {
	Addr      string `yaml:"addr"`
	DB        int    `yaml:"db"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

type RetryCfg struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
}

type MetricsCfg struct {
	ListenAddr string `yaml:"listen_addr"`
}

type Config struct {
	User          string       `yaml:"user"`
	BridgeAccount string       `yaml:"bridge_account"`
	Primary       LedgerCfg    `yaml:"primary"`
	Side          LedgerCfg    `yaml:"side"`
	Signer        SignerCfg    `yaml:"signer"`
	Fee           FeeCfg       `yaml:"fee"`
	Swap          SwapCfg      `yaml:"swap"`
	Balance       BalanceCfg   `yaml:"balance"`
	Liquidity     LiquidityCfg `yaml:"liquidity"`
	Redis         RedisCfg     `yaml:"redis"`
	Retry         RetryCfg     `yaml:"retry"`
	Metrics       MetricsCfg   `yaml:"metrics"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

// Default returns a Config with every default applied, used by the
// one-shot tools when no config file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.BridgeAccount == "" {
		c.BridgeAccount = "uswap"
	}
	if c.Primary.RPCURL == "" {
		c.Primary.RPCURL = "https://api.hive.blog"
	}
	if c.Primary.TimeoutMs == 0 {
		c.Primary.TimeoutMs = 10000
	}
	if c.Side.RPCURL == "" {
		c.Side.RPCURL = "https://api.hive-engine.com/rpc"
	}
	if c.Side.HistoryURL == "" {
		c.Side.HistoryURL = "https://accounts.hive-engine.com/accountHistory"
	}
	if c.Side.TimeoutMs == 0 {
		c.Side.TimeoutMs = 10000
	}
	if c.Signer.TimeoutMs == 0 {
		c.Signer.TimeoutMs = 60000
	}
	if c.Swap.MinAmount == 0 {
		c.Swap.MinAmount = 1.0
	}
	if c.Swap.SlippageBps == 0 {
		c.Swap.SlippageBps = 50
	}
	if c.Swap.HistoryCap == 0 {
		c.Swap.HistoryCap = 10
	}
	if c.Swap.MinResolveAgeS == 0 {
		c.Swap.MinResolveAgeS = 30
	}
	if c.Swap.MaxResolveAgeS == 0 {
		c.Swap.MaxResolveAgeS = 600
	}
	if c.Swap.ResolveEveryMs == 0 {
		c.Swap.ResolveEveryMs = 15000
	}
	if c.Balance.TTLMs == 0 {
		c.Balance.TTLMs = 30000
	}
	if c.Balance.DebounceMs == 0 {
		c.Balance.DebounceMs = 300
	}
	if c.Liquidity.RefreshMs == 0 {
		c.Liquidity.RefreshMs = 60000
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "uswap:history:"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMs == 0 {
		c.Retry.BaseDelayMs = 500
	}
}

func (c *Config) PrimaryTimeout() time.Duration {
	return time.Duration(c.Primary.TimeoutMs) * time.Millisecond
}
func (c *Config) SideTimeout() time.Duration {
	return time.Duration(c.Side.TimeoutMs) * time.Millisecond
}
func (c *Config) SignerTimeout() time.Duration {
	return time.Duration(c.Signer.TimeoutMs) * time.Millisecond
}
func (c *Config) BalanceTTL() time.Duration {
	return time.Duration(c.Balance.TTLMs) * time.Millisecond
}
func (c *Config) BalanceDebounce() time.Duration {
	return time.Duration(c.Balance.DebounceMs) * time.Millisecond
}
func (c *Config) LiquidityRefresh() time.Duration {
	return time.Duration(c.Liquidity.RefreshMs) * time.Millisecond
}
func (c *Config) MinResolveAge() time.Duration {
	return time.Duration(c.Swap.MinResolveAgeS) * time.Second
}
func (c *Config) MaxResolveAge() time.Duration {
	return time.Duration(c.Swap.MaxResolveAgeS) * time.Second
}
func (c *Config) ResolveEvery() time.Duration {
	return time.Duration(c.Swap.ResolveEveryMs) * time.Millisecond
}
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
}
