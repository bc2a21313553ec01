package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Simulation Simulation `mapstructure:"simulation"`
	Risk       Risk       `mapstructure:"risk"`
	Wallet     Wallet     `mapstructure:"wallet"`
	Chart      Chart      `mapstructure:"chart"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// Simulation holds the configuration for the portfolio simulator.
type Simulation struct {
	InitialValue     float64  `mapstructure:"initial_value"`
	TickInterval     int      `mapstructure:"tick_interval"` // seconds
	MaxStepPercent   float64  `mapstructure:"max_step_percent"`
	TradeProbability float64  `mapstructure:"trade_probability"`
	Symbols          []string `mapstructure:"symbols"`
}

// Risk holds the configuration for the timeframe/risk presets.
type Risk struct {
	DefaultTimeframe string `mapstructure:"default_timeframe"`
}

// Wallet holds the configuration for the Ethereum JSON-RPC provider.
type Wallet struct {
	RPCURL           string  `mapstructure:"rpc_url"`
	RequestTimeout   int     `mapstructure:"request_timeout"` // seconds
	PollInterval     int     `mapstructure:"poll_interval"`   // seconds
	ReconnectRetries int     `mapstructure:"reconnect_retries"`
	ReconnectDelay   int     `mapstructure:"reconnect_delay"` // seconds
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
}

// Chart holds the configuration for the chart data source.
type Chart struct {
	QuoteURL        string `mapstructure:"quote_url"`
	DefaultSymbol   string `mapstructure:"default_symbol"`
	DefaultInterval string `mapstructure:"default_interval"`
	Theme           string `mapstructure:"theme"`
}

// Server holds the configuration for the dashboard web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the trade journal database.
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
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("simulation.initial_value", 10000.0)
	viper.SetDefault("simulation.tick_interval", 5)
	viper.SetDefault("simulation.max_step_percent", 0.5)
	viper.SetDefault("simulation.trade_probability", 0.15)
	viper.SetDefault("simulation.symbols", []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT"})
	viper.SetDefault("risk.default_timeframe", "day")
	viper.SetDefault("wallet.request_timeout", 10)
	viper.SetDefault("wallet.poll_interval", 15)
	viper.SetDefault("wallet.reconnect_retries", 3)
	viper.SetDefault("wallet.reconnect_delay", 5)
	viper.SetDefault("wallet.rate_limit", 10) // requests per second
	viper.SetDefault("wallet.rate_limit_burst", 5)
	viper.SetDefault("chart.default_symbol", "BTCUSDT")
	viper.SetDefault("chart.default_interval", "15")
	viper.SetDefault("chart.theme", "dark")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "dashboard.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
