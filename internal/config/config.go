package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Buy-in price strategies understood by the pricing code.
const (
	BuyInAskLastBalance = "AskLastBalance"
	BuyInPercentage     = "Percentage"
)

// Config holds all configuration for the application.
type Config struct {
	Exchange     Exchange     `mapstructure:"exchange"`
	Trading      Trading      `mapstructure:"trading"`
	Notification Notification `mapstructure:"notification"`
	Logger       Logger       `mapstructure:"logger"`
	Server       Server       `mapstructure:"server"`
	Database     Database     `mapstructure:"database"`
}

// Exchange holds the configuration for the exchange REST API.
type Exchange struct {
	ApiKey         string  `mapstructure:"api_key"`
	ApiSecret      string  `mapstructure:"api_secret"`
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// ROIStep is one rung of the time-based return-on-investment ladder: once a
// position has been held longer than Duration minutes, a profit ratio above
// Profit triggers a timed sell.
type ROIStep struct {
	Duration float64 `mapstructure:"duration"`
	Profit   float64 `mapstructure:"profit"`
}

// Trading holds the configuration for the trade manager.
type Trading struct {
	QuoteCurrency       string  `mapstructure:"quote_currency"`
	MaxConcurrentTrades int     `mapstructure:"max_concurrent_trades"`
	StakePerTrader      float64 `mapstructure:"stake_per_trader"`

	MinimumVolume   float64  `mapstructure:"minimum_volume"`
	AlwaysTradeList []string `mapstructure:"always_trade_list"`
	MarketBlacklist []string `mapstructure:"market_blacklist"`

	CancelUnboughtEachCycle bool    `mapstructure:"cancel_unbought_each_cycle"`
	FeePercentage           float64 `mapstructure:"fee_percentage"`

	BuyInPriceStrategy   string  `mapstructure:"buy_in_price_strategy"`
	AskLastBalance       float64 `mapstructure:"ask_last_balance"`
	BuyInPricePercentage float64 `mapstructure:"buy_in_price_percentage"`

	ImmediatelyPlaceSellOrder         bool    `mapstructure:"immediately_place_sell_order"`
	ImmediatelyPlaceSellOrderAtProfit float64 `mapstructure:"immediately_place_sell_order_at_profit"`

	StopLossPercentage             float64   `mapstructure:"stop_loss_percentage"`
	ReturnOnInvestment             []ROIStep `mapstructure:"return_on_investment"`
	EnableTrailingStop             bool      `mapstructure:"enable_trailing_stop"`
	TrailingStopPercentage         float64   `mapstructure:"trailing_stop_percentage"`
	TrailingStopStartingPercentage float64   `mapstructure:"trailing_stop_starting_percentage"`

	IsDryRunning bool   `mapstructure:"is_dry_running"`
	Strategy     string `mapstructure:"strategy"`

	SignalInterval    int `mapstructure:"signal_interval"`
	ReconcileInterval int `mapstructure:"reconcile_interval"`
}

// Notification holds the configuration for the notification sink.
type Notification struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// Server holds the configuration for the status web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("exchange.base_url", "https://api.bittrex.com/v3")
	viper.SetDefault("exchange.rate_limit", 10) // requests per second
	viper.SetDefault("exchange.rate_limit_burst", 5)
	viper.SetDefault("exchange.timeout_seconds", 10)
	viper.SetDefault("trading.quote_currency", "BTC")
	viper.SetDefault("trading.buy_in_price_strategy", BuyInAskLastBalance)
	viper.SetDefault("trading.signal_interval", 300)    // seconds
	viper.SetDefault("trading.reconcile_interval", 60)  // seconds
	viper.SetDefault("database.dsn", "trade_manager.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
