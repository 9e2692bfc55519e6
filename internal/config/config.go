// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	Maintenance             bool   `yaml:"maintenance" env:"MAINTENANCE"`
	SiteURL                 string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:8080"`
	FromEmail               string `yaml:"from_email" env:"FROM_EMAIL" env-default:"root@localhost"`
	MaxMembers              int    `yaml:"max_members" env:"MAX_MEMBERS" env-default:"500"`
	MaxPackageSize          int64  `yaml:"max_package_size" env:"MAX_PACKAGE_SIZE" env-default:"20971520"`

	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	Session         `yaml:"session"`
	SMTP            `yaml:"smtp"`
	RabbitMQ        `yaml:"rabbitmq"`
	BlobStorage     `yaml:"storage"`
	PasswordPolicy  `yaml:"password_policy"`
	Recovery        `yaml:"recovery"`
	Log             `yaml:"log"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	// RateLimit число POST-запросов с учетными данными в секунду с одного IP.
	RateLimit float64 `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"1"`
	RateBurst int     `yaml:"rate_burst" env:"HTTP_RATE_BURST" env-default:"5"`
	// TrustProxy разрешает брать адрес клиента из X-Forwarded-For. Включать только за своим прокси.
	TrustProxy bool `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Addr        string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
}

// Session настройки сессии пользователя сайта.
type Session struct {
	Secret     string        `yaml:"secret" env:"SESSION_SECRET"`
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"336h"`
	CookieName string        `yaml:"cookie_name" env-default:"sublimall_session"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE"`
}

// SMTP настройки почтового транспорта.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
	// SMTPInsecure отключает STARTTLS и авторизацию, только для локальной разработки.
	SMTPInsecure bool `yaml:"insecure" env:"SMTP_INSECURE"`
}

// RabbitMQ настройки очереди уведомлений. Пустой URL означает прямую отправку писем.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// BlobStorage настройки хранилища файлов пакетов.
type BlobStorage struct {
	Backend        string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"fs"`
	Root           string `yaml:"root" env:"STORAGE_ROOT" env-default:"./packages"`
	S3Bucket       string `yaml:"s3_bucket" env:"S3_BUCKET" env-default:"sublimall"`
	S3Region       string `yaml:"s3_region" env:"S3_REGION" env-default:"us-east-1"`
	S3BaseEndpoint string `yaml:"s3_endpoint" env:"S3_ENDPOINT"`
	S3AccessKey    string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey    string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
}

// PasswordPolicy правила допустимого пароля.
type PasswordPolicy struct {
	MinLength      int  `yaml:"min_length" env-default:"8"`
	MaxLength      int  `yaml:"max_length" env-default:"128"`
	RequireLetter  bool `yaml:"require_letter" env-default:"true"`
	RequireDigit   bool `yaml:"require_digit" env-default:"true"`
	RequireSpecial bool `yaml:"require_special"`
}

// Recovery настройки восстановления пароля.
type Recovery struct {
	// ClearKeyAfterReset делает ссылку восстановления одноразовой.
	ClearKeyAfterReset bool `yaml:"clear_key_after_reset" env:"RECOVERY_CLEAR_KEY"`
}

// Log настройки журналов.
type Log struct {
	// AuditPath файл журнала неудачных входов, при пустом значении stdout.
	AuditPath string `yaml:"audit_path" env:"AUDIT_LOG_PATH"`
}

// MustLoad функция для загрузки конфига, путь берется из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, применяет переменные окружения и проверяет значения.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	var errs []error
	if c.StorageConnectionString == "" {
		errs = append(errs, errors.New("storage_connection_string is required"))
	}
	if len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("session.secret must be at least 32 characters"))
	}
	if c.MaxMembers < 0 {
		errs = append(errs, errors.New("max_members must not be negative"))
	}
	if c.MaxPackageSize <= 0 {
		errs = append(errs, errors.New("max_package_size must be positive"))
	}
	if c.PasswordPolicy.MinLength < 1 {
		errs = append(errs, errors.New("password_policy.min_length must be at least 1"))
	}
	if c.PasswordPolicy.MaxLength < c.PasswordPolicy.MinLength {
		errs = append(errs, errors.New("password_policy.max_length must not be less than min_length"))
	}
	switch c.BlobStorage.Backend {
	case "fs":
		if c.BlobStorage.Root == "" {
			errs = append(errs, errors.New("storage.root is required for fs backend"))
		}
	case "s3":
		if c.BlobStorage.S3Bucket == "" {
			errs = append(errs, errors.New("storage.s3_bucket is required for s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.BlobStorage.Backend))
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	return errors.Join(errs...)
}

// QueueNotifications сообщает, нужно ли отправлять письма через RabbitMQ.
func (c *Config) QueueNotifications() bool {
	return c.RabbitMQURL != ""
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"SiteURL: %s\n"+
			"Maintenance: %t\n"+
			"MaxMembers: %d\n"+
			"MaxPackageSize: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"SMTP:\n"+
			"  Host: %s\n"+
			"  Port: %s\n"+
			"Storage:\n"+
			"  Backend: %s\n"+
			"QueueNotifications: %t\n",
		c.Env,
		c.SiteURL,
		c.Maintenance,
		c.MaxMembers,
		c.MaxPackageSize,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RedisConnection.Addr,
		c.RedisConnection.DB,
		c.SMTPHost,
		c.SMTPPort,
		c.BlobStorage.Backend,
		c.QueueNotifications(),
	)
}
