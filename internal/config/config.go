package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppPort string `mapstructure:"APP_PORT"`

	MySQLHost string `mapstructure:"MYSQL_HOST"`
	MySQLPort string `mapstructure:"MYSQL_PORT"`
	MySQLDB   string `mapstructure:"MYSQL_DB"`
	MySQLUser string `mapstructure:"MYSQL_USER"`
	MySQLPass string `mapstructure:"MYSQL_PASS"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisDB   int    `mapstructure:"REDIS_DB"`

	IdempTTLSecs int `mapstructure:"IDEMPOTENCY_TTL_SECONDS"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	HubHeartbeatSecs int `mapstructure:"HUB_HEARTBEAT_SECONDS"`
	HubWindowSecs    int `mapstructure:"HUB_HEARTBEAT_WINDOW_SECONDS"`
	HubSendBuffer    int `mapstructure:"HUB_SEND_BUFFER"`
	WSMessagesPerSec int `mapstructure:"WS_MESSAGES_PER_SECOND"`

	PendingDonationTTLMins int    `mapstructure:"PENDING_DONATION_TTL_MINUTES"`
	SweepSchedule          string `mapstructure:"SWEEP_SCHEDULE"`

	PaymentGateway      string `mapstructure:"PAYMENT_GATEWAY"`
	PaymentRedirectBase string `mapstructure:"PAYMENT_REDIRECT_BASE"`
}

// GatewaySimulated settles charges in-process without moving money.
const GatewaySimulated = "simulated"

var knownGateways = map[string]bool{GatewaySimulated: true}

var defaults = map[string]any{
	"APP_ENV":                      "production",
	"APP_PORT":                     "8080",
	"MYSQL_HOST":                   "mysql",
	"MYSQL_PORT":                   "3306",
	"MYSQL_DB":                     "scholarfund",
	"MYSQL_USER":                   "scholarfund",
	"MYSQL_PASS":                   "scholarfund",
	"REDIS_ADDR":                   "redis:6379",
	"REDIS_DB":                     0,
	"IDEMPOTENCY_TTL_SECONDS":      300,
	"RABBITMQ_URL":                 "",
	"EVENTS_EXCHANGE":              "scholarfund.events",
	"JWT_SECRET":                   "",
	"HUB_HEARTBEAT_SECONDS":        30,
	"HUB_HEARTBEAT_WINDOW_SECONDS": 75,
	"HUB_SEND_BUFFER":              32,
	"WS_MESSAGES_PER_SECOND":       5,
	"PENDING_DONATION_TTL_MINUTES": 60,
	"SWEEP_SCHEDULE":               "@every 5m",
	"PAYMENT_GATEWAY":              "",
	"PAYMENT_REDIRECT_BASE":        "http://localhost:8080/payments",
}

// Load reads an optional .env file from dir (empty means ".") and lets
// environment variables override it.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, d := range defaults {
		v.SetDefault(k, d)
		// AutomaticEnv only applies to keys viper already knows about
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.HubHeartbeatSecs <= 0 || c.HubWindowSecs <= c.HubHeartbeatSecs {
		return errors.New("HUB_HEARTBEAT_WINDOW_SECONDS must exceed HUB_HEARTBEAT_SECONDS")
	}
	gw := c.Gateway()
	if gw == "" {
		return errors.New("missing PAYMENT_GATEWAY (only development falls back to simulated)")
	}
	if !knownGateways[gw] {
		return fmt.Errorf("unknown PAYMENT_GATEWAY %q", gw)
	}
	return nil
}

// Gateway is the configured payment gateway. Development defaults to the
// simulated one; every other environment must name it explicitly.
func (c *Config) Gateway() string {
	if gw := strings.ToLower(strings.TrimSpace(c.PaymentGateway)); gw != "" {
		return gw
	}
	if c.IsDevelopment() {
		return GatewaySimulated
	}
	return ""
}

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HubHeartbeatSecs) * time.Second
}

func (c *Config) HeartbeatWindow() time.Duration {
	return time.Duration(c.HubWindowSecs) * time.Second
}

func (c *Config) PendingDonationTTL() time.Duration {
	return time.Duration(c.PendingDonationTTLMins) * time.Minute
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME; loc=UTC keeps deadlines comparable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
