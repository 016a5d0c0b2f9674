package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/analytics"
	"github.com/phillip/ngo-admin-console/audit"
	"github.com/phillip/ngo-admin-console/auth"
	"github.com/phillip/ngo-admin-console/notify"
	"github.com/phillip/ngo-admin-console/store"
	"github.com/phillip/ngo-admin-console/utils"
)

type AppConfig struct {
	Env                string        `mapstructure:"env"`
	Port               string        `mapstructure:"port"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	LoginAttempts      int           `mapstructure:"login_attempts_per_minute"`
	Timezone           string        `mapstructure:"timezone"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mongo or memory
}

type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MailConfig struct {
	Transport string        `mapstructure:"transport"` // smtp, zepto, sendgrid or console
	Brand     string        `mapstructure:"brand"`
	From      string        `mapstructure:"from"`
	FromName  string        `mapstructure:"from_name"`
	Timeout   time.Duration `mapstructure:"timeout"`

	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass"`

	ZeptoURL string `mapstructure:"zepto_url"`
	ZeptoKey string `mapstructure:"zepto_key"`

	SendGridKey string `mapstructure:"sendgrid_key"`

	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type AnalyticsConfig struct {
	NormalizeLabels bool `mapstructure:"normalize_labels"`
	// Aliases are "raw=canonical" pairs, e.g. "Ph.D.=Doctorate".
	Aliases []string `mapstructure:"aliases"`
}

// Config carries settings plus the clients built from them. Handlers receive
// it as their only dependency.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Store      StoreConfig      `mapstructure:"store"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Mail       MailConfig       `mapstructure:"mail"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`

	// runtime handles, set by Setup
	Log         *zap.SugaredLogger `mapstructure:"-"`
	MongoClient *mongo.Client      `mapstructure:"-"`
	RedisClient *redis.Client      `mapstructure:"-"`
	DB          store.Store        `mapstructure:"-"`
	Tokens      *auth.TokenManager `mapstructure:"-"`
	Revoker     auth.Revoker       `mapstructure:"-"`
	Notifier    *notify.Notifier   `mapstructure:"-"`
	Audit       audit.Publisher    `mapstructure:"-"`
	Images      utils.ImageStore   `mapstructure:"-"`
	Accounts    *accounts.Service  `mapstructure:"-"`
	Location    *time.Location     `mapstructure:"-"`
}

var defaults = map[string]any{
	"app.env":                       "development",
	"app.port":                      "8080",
	"app.allowed_origins":           []string{"http://localhost:3000"},
	"app.request_timeout":           15 * time.Second,
	"app.rate_limit_per_minute":     300,
	"app.login_attempts_per_minute": 10,
	"app.timezone":                  "UTC",
	"auth.jwt_secret":               "",
	"auth.issuer":                   "ngo-admin-console",
	"auth.session_ttl":              12 * time.Hour,
	"store.driver":                  "mongo",
	"mongo.uri":                     "mongodb://localhost:27017",
	"mongo.database":                "voluntrek",
	"mongo.timeout":                 5 * time.Second,
	"redis.addr":                    "",
	"redis.password":                "",
	"redis.db":                      0,
	"kafka.brokers":                 []string{},
	"kafka.topic":                   "admin.audit",
	"mail.transport":                "console",
	"mail.brand":                    "VolunTrek",
	"mail.from":                     "",
	"mail.from_name":                "VolunTrek",
	"mail.timeout":                  notify.DefaultTimeout,
	"mail.smtp_host":                "smtp.gmail.com",
	"mail.smtp_port":                465,
	"mail.smtp_user":                "",
	"mail.smtp_pass":                "",
	"mail.zepto_url":                "https://api.zeptomail.com/v1.1/email",
	"mail.zepto_key":                "",
	"mail.sendgrid_key":             "",
	"mail.breaker_max_failures":     5,
	"mail.breaker_timeout":          time.Minute,
	"cloudinary.cloud_name":         "",
	"cloudinary.api_key":            "",
	"cloudinary.api_secret":         "",
	"cloudinary.folder":             "events",
	"analytics.normalize_labels":    false,
	"analytics.aliases":             []string{},
}

// env names kept from the previous deployment
var legacyEnv = map[string]string{
	"mongo.uri":             "MONGO_URI",
	"mongo.database":        "DB_NAME",
	"auth.jwt_secret":       "JWT_SECRET",
	"mail.zepto_url":        "ZEPTO_API_URL",
	"mail.zepto_key":        "ZEPTO_API_KEY",
	"mail.from":             "EMAIL_FROM",
	"mail.smtp_user":        "EMAIL_USER",
	"mail.smtp_pass":        "EMAIL_PASS",
	"mail.sendgrid_key":     "SENDGRID_API_KEY",
	"cloudinary.cloud_name": "CLOUDINARY_CLOUD_NAME",
	"cloudinary.api_key":    "CLOUDINARY_API_KEY",
	"cloudinary.api_secret": "CLOUDINARY_API_SECRET",
	"redis.addr":            "REDIS_ADDR",
	"app.port":              "PORT",
}

// Load reads .env, an optional config.yaml and the environment. Environment
// variables use upper-case keys with underscores, e.g. MAIL_TRANSPORT.
func Load(paths ...string) (*Config, error) {
	c, err := read(paths)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadStore reads the configuration for tools that only touch the backends
// and never issue session tokens, so JWT_SECRET may be left unset.
func LoadStore(paths ...string) (*Config, error) {
	c, err := read(paths)
	if err != nil {
		return nil, err
	}
	if err := c.ValidateBackends(); err != nil {
		return nil, err
	}
	return c, nil
}

func read(paths []string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// comma separated lists from the environment
	c.App.AllowedOrigins = splitList(c.App.AllowedOrigins)
	c.Kafka.Brokers = splitList(c.Kafka.Brokers)
	c.Analytics.Aliases = splitList(c.Analytics.Aliases)
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return c.ValidateBackends()
}

// ValidateBackends checks the store, mail and timezone settings.
func (c *Config) ValidateBackends() error {
	switch c.Store.Driver {
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("MONGO_URI and DB_NAME are required for the mongo store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Mail.Transport {
	case "smtp", "zepto", "sendgrid", "console":
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	return nil
}

// Normalizer is the label normalizer the dashboard uses. Without configured
// aliases it falls back to analytics.DefaultAliases.
func (c *Config) Normalizer() analytics.Normalizer {
	aliases := analytics.DefaultAliases
	if len(c.Analytics.Aliases) > 0 {
		aliases = make(map[string]string, len(c.Analytics.Aliases))
		for _, pair := range c.Analytics.Aliases {
			raw, canonical, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			aliases[strings.TrimSpace(raw)] = strings.TrimSpace(canonical)
		}
	}
	return analytics.Normalizer{Enabled: c.Analytics.NormalizeLabels, Aliases: aliases}
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
