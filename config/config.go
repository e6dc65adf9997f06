package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type SMTPConfig struct {
	Host     string `long:"host" env:"HOST" description:"SMTP server host"`
	Port     int    `long:"port" env:"PORT" default:"587" description:"SMTP server port"`
	Username string `long:"username" env:"USERNAME" description:"SMTP user"`
	Password string `long:"password" env:"PASSWORD" description:"SMTP password"`
	From     string `long:"from" env:"FROM" default:"tickets@localhost" description:"sender address of ticket emails"`
}

type Config struct {
	HTTPAddr    string `long:"http-addr" env:"HTTP_ADDR" default:":8080" description:"HTTP listen address"`
	PostgresURL string `long:"postgres-url" env:"POSTGRES_URL" required:"true" description:"Postgres connection string"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address, required by the redis backends"`

	SequenceBackend string `long:"sequence-backend" env:"SEQUENCE_BACKEND" default:"postgres" choice:"postgres" choice:"redis" description:"ticket number sequence storage"`
	NotifyTransport string `long:"notify-transport" env:"NOTIFY_TRANSPORT" default:"redis" choice:"redis" choice:"postgres" description:"transport of ticket notification events"`

	StoreTimeout time.Duration `long:"store-timeout" env:"STORE_TIMEOUT" default:"5s" description:"upper bound of a single store call"`
	JWTSecret    string        `long:"jwt-secret" env:"JWT_SECRET" required:"true" description:"HS256 secret of access tokens"`

	SMTP       SMTPConfig `group:"SMTP" namespace:"smtp" env-namespace:"SMTP"`
	WebhookURL string     `long:"notify-webhook-url" env:"NOTIFY_WEBHOOK_URL" description:"endpoint receiving ticket events, disabled when empty"`

	JaegerEndpoint       string        `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" description:"Jaeger collector endpoint, spans are not exported when empty"`
	StatsRefreshInterval time.Duration `long:"stats-refresh-interval" env:"STATS_REFRESH_INTERVAL" default:"30s" description:"how often ticket gauges are refreshed"`
	LogLevel             string        `long:"log-level" env:"LOG_LEVEL" default:"info" description:"logrus level"`
}

// Load reads the optional env files (.env by default), then parses flags and
// environment variables. Variables already present in the environment win
// over the files.
func Load(args []string, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("could not load %s: %w", file, err)
		}
	}

	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive, got %s", c.StoreTimeout)
	}
	if c.StatsRefreshInterval <= 0 {
		return fmt.Errorf("stats refresh interval must be positive, got %s", c.StatsRefreshInterval)
	}
	if c.RedisAddr == "" && (c.SequenceBackend == BackendRedis || c.NotifyTransport == BackendRedis) {
		return errors.New("redis address is required by the redis sequence backend or notify transport")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
