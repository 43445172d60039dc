package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/DomeLiquid/lending/core"
	"github.com/DomeLiquid/lending/oracle"
	"github.com/fox-one/mixin-sdk-go/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LogLevel    string         `mapstructure:"log-level"`
	MetricsFile string         `mapstructure:"metrics-file"`
	Database    DatabaseConfig `mapstructure:"database"`
	Group       GroupConfig    `mapstructure:"group"`
	Banks       []BankConfig   `mapstructure:"banks"`
	Prices      []PriceConfig  `mapstructure:"prices"`
	MarketFile  string         `mapstructure:"market-file"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// AssetConfig describes a group asset, either inline or through MixinFile,
// a safe asset as returned by the Mixin API.
type AssetConfig struct {
	AssetId   string `mapstructure:"asset-id"`
	Symbol    string `mapstructure:"symbol"`
	Name      string `mapstructure:"name"`
	Precision int32  `mapstructure:"precision"`
	MixinFile string `mapstructure:"mixin-asset-file"`
}

type GroupConfig struct {
	Name      string      `mapstructure:"name"`
	Admin     string      `mapstructure:"admin"`
	Primary   AssetConfig `mapstructure:"primary"`
	Secondary AssetConfig `mapstructure:"secondary"`
}

type BankConfig struct {
	Asset                  string `mapstructure:"asset"`
	LiquidationThreshold   uint64 `mapstructure:"liquidation-threshold"`
	MaxLtv                 uint64 `mapstructure:"max-ltv"`
	LiquidationBonus       uint64 `mapstructure:"liquidation-bonus"`
	LiquidationCloseFactor uint64 `mapstructure:"liquidation-close-factor"`
	InterestRate           uint64 `mapstructure:"interest-rate"`
	OracleFeedId           string `mapstructure:"oracle-feed-id"`
	OracleMaxAge           int64  `mapstructure:"oracle-max-age"`
}

// PriceConfig seeds the feed oracle. Price is a decimal quote, scaled to
// Exponent (oracle.DEFAULT_EXPONENT when zero). Without a Price the quote of
// CoinId is taken from the market file.
type PriceConfig struct {
	Feed     string `mapstructure:"feed"`
	Price    string `mapstructure:"price"`
	Exponent int32  `mapstructure:"exponent"`
	CoinId   string `mapstructure:"coin-id"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LENDING")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("metrics-file", "")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "lending.db")
	v.SetDefault("group.name", "default")
	v.SetDefault("group.admin", "")

	if flags != nil {
		bindings := map[string]string{
			"log-level":       "log-level",
			"metrics-file":    "metrics-file",
			"database.driver": "db-driver",
			"database.dsn":    "db-dsn",
			"group.name":      "group",
		}
		for key, flag := range bindings {
			f := flags.Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, errors.Wrapf(err, "bind flag %s", flag)
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
	} else {
		v.SetConfigName("lending")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

func (c AssetConfig) toAsset() (core.Asset, error) {
	if c.MixinFile == "" {
		return core.Asset{
			AssetId:   c.AssetId,
			Symbol:    c.Symbol,
			Name:      c.Name,
			Precision: c.Precision,
		}, nil
	}

	asset, err := readMixinAsset(c.MixinFile)
	if err != nil {
		return core.Asset{}, err
	}
	if c.AssetId != "" && c.AssetId != asset.AssetId {
		return core.Asset{}, errors.Wrapf(core.ErrInvalidConfig, "asset-id %s, %s holds %s", c.AssetId, c.MixinFile, asset.AssetId)
	}
	return asset, nil
}

// readMixinAsset accepts a bare safe asset or an API response wrapping it in
// data.
func readMixinAsset(path string) (core.Asset, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return core.Asset{}, errors.Wrap(err, "read mixin asset")
	}

	var resp struct {
		Data *mixin.SafeAsset `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Asset{}, errors.Wrapf(err, "decode mixin asset %s", path)
	}
	asset := resp.Data
	if asset == nil {
		asset = &mixin.SafeAsset{}
		if err := json.Unmarshal(body, asset); err != nil {
			return core.Asset{}, errors.Wrapf(err, "decode mixin asset %s", path)
		}
	}
	if asset.AssetID == "" {
		return core.Asset{}, errors.Wrapf(core.ErrInvalidConfig, "%s has no asset id", path)
	}
	return core.NewAssetFromMixin(asset), nil
}

func (c BankConfig) toBankConfig() core.BankConfig {
	return core.BankConfig{
		LiquidationThreshold:   c.LiquidationThreshold,
		MaxLtv:                 c.MaxLtv,
		LiquidationBonus:       c.LiquidationBonus,
		LiquidationCloseFactor: c.LiquidationCloseFactor,
		InterestRate:           c.InterestRate,
		OracleFeedId:           c.OracleFeedId,
		OracleMaxAge:           c.OracleMaxAge,
	}
}

// Bank finds the bank entry for an asset id or symbol.
func (c Config) Bank(asset core.Asset) (BankConfig, bool) {
	for _, b := range c.Banks {
		if b.Asset == asset.AssetId || strings.EqualFold(b.Asset, asset.Symbol) {
			return b, true
		}
	}
	return BankConfig{}, false
}

// marketQuotes loads the market file, if any.
func (c Config) marketQuotes() (map[string]oracle.MarketAssetInfo, error) {
	if c.MarketFile == "" {
		return nil, nil
	}
	f, err := os.Open(c.MarketFile)
	if err != nil {
		return nil, errors.Wrap(err, "open market file")
	}
	defer f.Close()
	return oracle.ReadMarketAssets(f)
}

func (c PriceConfig) toPrice(quotes map[string]oracle.MarketAssetInfo, now time.Time) (core.Price, error) {
	exponent := c.Exponent
	if exponent == 0 {
		exponent = oracle.DEFAULT_EXPONENT
	}

	if c.Price == "" {
		info, ok := quotes[c.CoinId]
		if !ok {
			return core.Price{}, errors.Wrapf(core.ErrInvalidConfig, "no quote for feed %s", c.Feed)
		}
		return info.ToPrice(c.Feed, exponent)
	}

	quote, err := decimal.NewFromString(c.Price)
	if err != nil {
		return core.Price{}, errors.Wrapf(err, "price of feed %s", c.Feed)
	}
	info := oracle.MarketAssetInfo{CoinID: c.CoinId, CurrentPrice: quote, UpdatedAt: now}
	return info.ToPrice(c.Feed, exponent)
}
