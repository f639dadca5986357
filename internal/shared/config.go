package shared

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"triposo/internal/adapters/triposo"
)

type Config struct {
	AppEnv      string        `mapstructure:"app_env"`
	LogLevel    string        `mapstructure:"log_level"`
	HTTPAddr    string        `mapstructure:"http_addr"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	MySQLDSN    string        `mapstructure:"mysql_dsn"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPass   string        `mapstructure:"redis_password"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	BaseURL     string        `mapstructure:"base_url"`
	AccountID   string        `mapstructure:"account_id"`
	Token       string        `mapstructure:"token"`
	RPS         int           `mapstructure:"rps"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Workers     int           `mapstructure:"workers"`
	PageSize    int           `mapstructure:"page_size"`
	EscapeQuery bool          `mapstructure:"escape_query"`
	PagerPolicy string        `mapstructure:"pager_policy"` // empty|short
}

// Triposo returns the transport connection record.
func (c Config) Triposo() triposo.Config {
	return triposo.Config{
		BaseURL:   c.BaseURL,
		AccountID: c.AccountID,
		Token:     c.Token,
		RPS:       c.RPS,
		Timeout:   c.Timeout,
	}
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "prod")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("mysql_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("cache_ttl", 15*time.Minute)
	v.SetDefault("base_url", triposo.DefaultBaseURL)
	v.SetDefault("account_id", "")
	v.SetDefault("token", "")
	v.SetDefault("rps", 5)
	v.SetDefault("timeout", 20*time.Second)
	v.SetDefault("workers", 4)
	v.SetDefault("page_size", 20)
	v.SetDefault("escape_query", false)
	v.SetDefault("pager_policy", "empty")
}

// NewViper returns a viper bound to TRIPOSO_* environment variables, plus the
// file named by TRIPOSO_CONFIG when set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRIPOSO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration from v. Missing credentials only warn here; the
// client constructor rejects them.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	if c.PagerPolicy != "empty" && c.PagerPolicy != "short" {
		return Config{}, errors.Newf("pager_policy must be empty or short, got %q", c.PagerPolicy)
	}
	if c.AccountID == "" || c.Token == "" {
		log.Warn().Msg("TRIPOSO_ACCOUNT_ID or TRIPOSO_TOKEN is empty")
	}
	return c, nil
}
