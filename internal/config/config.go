package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port   string   `env:"PORT" envDefault:"8080"`
	Origin []string `env:"ORIGIN" envSeparator:","`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"marketplace.events"`
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"market-api"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN,required"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN,required"`
	ActivationSecret   string        `env:"ACTIVATION_SECRET,required"`
	ForgotSecret       string        `env:"FORGOT_SECRET,required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_EXPIRE" envDefault:"5m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_EXPIRE" envDefault:"72h"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"false"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPMail     string `env:"SMTP_MAIL"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	StorageBucket      string `env:"STORAGE_BUCKET"`
	GCPCredentialsFile string `env:"GCP_CREDENTIALS_FILE"`
	FirebaseProjectID  string `env:"FIREBASE_PROJECT_ID"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
