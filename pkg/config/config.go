package config

import (
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
)

const (
	MailTransportNone  = "none"
	MailTransportSMTP  = "smtp"
	MailTransportKafka = "kafka"
)

type Config struct {
	HTTPPort           int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	DBDriver           string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN              string        `env:"DB_DSN" envDefault:"crm.db"`
	DBMaxConns         int           `env:"DB_MAX_CONNS" envDefault:"10"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"12h"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	BacklogInterval    time.Duration `env:"BACKLOG_REFRESH_INTERVAL" envDefault:"5m"`
	LoginMaxFailed     int           `env:"LOGIN_MAX_FAILED" envDefault:"5"`
	LoginWindow        time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
	Bootstrap          Bootstrap
	Mail               Mail
	Kafka              Kafka
	Calendar           Calendar
	Storage            Storage
}

// Bootstrap is the one-time admin seed used when no admin exists.
type Bootstrap struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL" envDefault:"admin@company.com"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD" envDefault:"admin123"`
	AdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
}

type Mail struct {
	Transport      string        `env:"MAIL_TRANSPORT" envDefault:"none"`
	Timeout        time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
	MailerHost     string        `env:"MAILER_HOST"`
	MailerPort     int           `env:"MAILER_PORT" envDefault:"587"`
	MailerLogin    string        `env:"MAILER_LOGIN"`
	MailerPassword string        `env:"MAILER_PASSWORD"`
	MailerFrom     string        `env:"MAILER_FROM"`
	MailerFromName string        `env:"MAILER_FROM_NAME" envDefault:"CRM"`
}

type Kafka struct {
	Brokers           []string `env:"KAFKA_BROKERS"`
	NotificationTopic string   `env:"KAFKA_NOTIFICATION_TOPIC" envDefault:"notifications"`
	ConsumerID        string   `env:"KAFKA_CONSUMER_ID" envDefault:"crm-mail-relay"`
}

type Calendar struct {
	URL           string        `env:"CALENDAR_URL"`
	Token         string        `env:"CALENDAR_TOKEN"`
	Timeout       time.Duration `env:"CALENDAR_TIMEOUT" envDefault:"10s"`
	RetryAttempts int           `env:"CALENDAR_RETRY_ATTEMPTS" envDefault:"2"`
}

// Storage is an S3 compatible bucket for document files. An empty bucket disables uploads.
type Storage struct {
	Bucket          string        `env:"S3_BUCKET"`
	Region          string        `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint        string        `env:"S3_ENDPOINT"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	PathStyle       bool          `env:"S3_PATH_STYLE" envDefault:"false"`
	URLExpiry       time.Duration `env:"S3_URL_EXPIRY" envDefault:"15m"`
	MaxFileSize     int64         `env:"S3_MAX_FILE_SIZE" envDefault:"20971520"`
}

func New(envPath string) (Config, error) {
	var c Config

	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	err = env.Parse(&c)
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
