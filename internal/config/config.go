// Package config loads the oracle's configuration from the environment,
// following the teacher pack's viper+gotenv loader shape.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config is the flat configuration surface enumerated in spec.md §6.
type Config struct {
	Port                 int     `mapstructure:"port"`
	UpdateIntervalMs      int     `mapstructure:"update_interval_ms"`
	PriceChangeThreshold float64 `mapstructure:"price_change_threshold"`
	TWAPWindowMs         int     `mapstructure:"twap_window_ms"`
	RentalIntervalMs     int     `mapstructure:"rental_interval_ms"`

	DemoMode   bool `mapstructure:"demo_mode"`
	ScrapeMode bool `mapstructure:"scrape_mode"`

	UseProxy   bool   `mapstructure:"use_proxy"`
	ProxyURLs  string `mapstructure:"proxy_urls"`

	ScraperAPIKey string `mapstructure:"scraper_api_key"`

	EbayAppID      string `mapstructure:"ebay_app_id"`
	EbayCertID     string `mapstructure:"ebay_cert_id"`
	AmazonAccessKey string `mapstructure:"amazon_access_key"`
	AmazonSecretKey string `mapstructure:"amazon_secret_key"`
	AmazonPartnerTag string `mapstructure:"amazon_partner_tag"`
	BestBuyAPIKey  string `mapstructure:"bestbuy_api_key"`

	HistoryStoreURL string `mapstructure:"history_store_url"`
	HistoryStoreKey string `mapstructure:"history_store_key"`

	RentalMarketplaceURL string `mapstructure:"rental_marketplace_url"`

	CORSOrigins string `mapstructure:"cors_origins"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from the environment, an optional .env file,
// and defaults, in that order of precedence (lowest to highest: defaults,
// .env, process environment).
func Load() (*Config, error) {
	_ = godotenv.Load()
	_ = gotenv.Load()

	setDefaults()
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func bindEnvVars() {
	viper.BindEnv("port", "PORT")
	viper.BindEnv("update_interval_ms", "UPDATE_INTERVAL_MS")
	viper.BindEnv("price_change_threshold", "PRICE_CHANGE_THRESHOLD")
	viper.BindEnv("twap_window_ms", "TWAP_WINDOW_MS")
	viper.BindEnv("rental_interval_ms", "RENTAL_INTERVAL_MS")

	viper.BindEnv("demo_mode", "DEMO_MODE")
	viper.BindEnv("scrape_mode", "SCRAPE_MODE")

	viper.BindEnv("use_proxy", "USE_PROXY")
	viper.BindEnv("proxy_urls", "PROXY_URLS")

	viper.BindEnv("scraper_api_key", "SCRAPER_API_KEY")

	viper.BindEnv("ebay_app_id", "EBAY_APP_ID")
	viper.BindEnv("ebay_cert_id", "EBAY_CERT_ID")
	viper.BindEnv("amazon_access_key", "AMAZON_ACCESS_KEY")
	viper.BindEnv("amazon_secret_key", "AMAZON_SECRET_KEY")
	viper.BindEnv("amazon_partner_tag", "AMAZON_PARTNER_TAG")
	viper.BindEnv("bestbuy_api_key", "BESTBUY_API_KEY")

	viper.BindEnv("history_store_url", "HISTORY_STORE_URL")
	viper.BindEnv("history_store_key", "HISTORY_STORE_KEY")

	viper.BindEnv("rental_marketplace_url", "RENTAL_MARKETPLACE_URL")

	viper.BindEnv("cors_origins", "CORS_ORIGINS")

	viper.BindEnv("log_level", "LOG_LEVEL")
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("UPDATE_INTERVAL_MS", "30000")
	viper.SetDefault("PRICE_CHANGE_THRESHOLD", "0.005")
	viper.SetDefault("TWAP_WINDOW_MS", "300000")
	viper.SetDefault("RENTAL_INTERVAL_MS", "300000")
	viper.SetDefault("DEMO_MODE", "false")
	viper.SetDefault("SCRAPE_MODE", "false")
	viper.SetDefault("USE_PROXY", "false")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ORIGINS", "*")
}

// validate rejects configurations with nonsensical numeric values; it
// does not require any credential, since an empty credential set simply
// disables that adapter at mode-selection time.
func validate(cfg *Config) error {
	if cfg.Port <= 0 {
		return fmt.Errorf("PORT must be positive, got %d", cfg.Port)
	}
	if cfg.UpdateIntervalMs <= 0 {
		return fmt.Errorf("UPDATE_INTERVAL_MS must be positive, got %d", cfg.UpdateIntervalMs)
	}
	if cfg.TWAPWindowMs <= 0 {
		return fmt.Errorf("TWAP_WINDOW_MS must be positive, got %d", cfg.TWAPWindowMs)
	}
	if cfg.PriceChangeThreshold < 0 {
		return fmt.Errorf("PRICE_CHANGE_THRESHOLD must be non-negative, got %f", cfg.PriceChangeThreshold)
	}
	return nil
}

// CORSOriginList splits the comma-separated CORSOrigins into a slice.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
