package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID string   `env:"FIREBASE_PROJECT_ID"`
	AdminUIDs         []string `env:"ADMIN_UIDS" envSeparator:","`

	AppBaseURL     string   `env:"APP_BASE_URL" envDefault:"http://localhost:5173"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	GitSHA    string `env:"GIT_SHA"`
	BuildTime string `env:"BUILD_TIME"`

	SMTP SMTPConfig `envPrefix:"SMTP_"`

	RedisURL           string `env:"REDIS_URL"`
	RedisChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"centace:"`

	LiveConnectTimeout   time.Duration `env:"LIVE_CONNECT_TIMEOUT" envDefault:"10s"`
	EmailDispatchTimeout time.Duration `env:"EMAIL_DISPATCH_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@centace.app"`
	FromName string `env:"FROM_NAME" envDefault:"Centace"`
	UseTLS   bool   `env:"TLS" envDefault:"true"`
}

// Enabled reports whether an outbound mail server is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
