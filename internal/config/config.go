// Package config загружает конфигурацию сервиса репутации из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"reputation"`
	DBPassword string `envconfig:"DB_PASSWORD"` // Обязателен только для --store=postgres
	DBName     string `envconfig:"DB_NAME" default:"reputation"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Reputation ---
	// Сколько репутации пользователь может заработать за сутки
	ReputationMaxDaily int `envconfig:"REPUTATION_MAX_DAILY" default:"200"`
	// YAML-файл, переопределяющий дельты правил (пусто = встроенная таблица)
	ReputationRulesFile string `envconfig:"REPUTATION_RULES_FILE"`
	// Отключать ли исходную запись при отмене события (по умолчанию только арифметика)
	ReputationDisableCancelled bool `envconfig:"REPUTATION_DISABLE_CANCELLED" default:"false"`
	// Цель правил, по которой ищется reputation_rules.reputation_target
	ReputationTarget string `envconfig:"REPUTATION_TARGET" default:"author"`
	// Типы сущностей для `rules seed` и хранилища в памяти
	ReputationEntityTypes []string `envconfig:"REPUTATION_ENTITY_TYPES" default:"question,answer"`

	// --- Idempotency ---
	ProcessedEventsRetention time.Duration `envconfig:"PROCESSED_EVENTS_RETENTION" default:"168h"`
	// Максимальное окно, в течение которого транспорт может повторно доставить событие
	TransportMaxRedeliveryWindow time.Duration `envconfig:"TRANSPORT_MAX_REDELIVERY_WINDOW" default:"72h"`

	// --- Consumer runtime ---
	// Сколько событий обрабатываем параллельно.
	ConsumerMaxInflight  int           `envconfig:"CONSUMER_MAX_INFLIGHT" default:"16"`
	ConsumerBatchSize    int           `envconfig:"CONSUMER_BATCH_SIZE" default:"32"`
	ConsumerPollInterval time.Duration `envconfig:"CONSUMER_POLL_INTERVAL" default:"1s"`
	ConsumerLease        time.Duration `envconfig:"CONSUMER_LEASE" default:"30s"`
	ConsumerMaxAttempts  int           `envconfig:"CONSUMER_MAX_ATTEMPTS" default:"10"`

	// --- Cache ---
	CacheTTL             time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	CacheCleanupInterval time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"10m"`

	// --- Jobs ---
	JobsDailyResetSpec string `envconfig:"JOBS_DAILY_RESET_SPEC" default:"0 0 * * *"`
	JobsPurgeSpec      string `envconfig:"JOBS_PURGE_SPEC" default:"30 0 * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс приложения.
// Если зона не загружается — UTC, чтобы крон всё равно стартовал.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidateDatabase проверяет настройки, нужные только для работы с PostgreSQL.
func (c *Config) ValidateDatabase() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD не задан")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.ReputationMaxDaily <= 0 {
		return fmt.Errorf("REPUTATION_MAX_DAILY должен быть > 0")
	}
	if c.ReputationTarget == "" {
		return fmt.Errorf("REPUTATION_TARGET не задан")
	}
	if c.ProcessedEventsRetention <= 0 {
		return fmt.Errorf("PROCESSED_EVENTS_RETENTION должен быть > 0")
	}
	// Чистить маркеры раньше, чем транспорт перестанет передоставлять события, нельзя:
	// дубликат прошёл бы проверку идемпотентности.
	if c.ProcessedEventsRetention < c.TransportMaxRedeliveryWindow {
		return fmt.Errorf("PROCESSED_EVENTS_RETENTION (%s) меньше TRANSPORT_MAX_REDELIVERY_WINDOW (%s)",
			c.ProcessedEventsRetention, c.TransportMaxRedeliveryWindow)
	}
	if c.ConsumerMaxInflight <= 0 {
		return fmt.Errorf("CONSUMER_MAX_INFLIGHT должен быть > 0")
	}
	if c.ConsumerBatchSize <= 0 {
		return fmt.Errorf("CONSUMER_BATCH_SIZE должен быть > 0")
	}
	if c.ConsumerPollInterval <= 0 || c.ConsumerLease <= 0 {
		return fmt.Errorf("CONSUMER_POLL_INTERVAL и CONSUMER_LEASE должны быть > 0")
	}
	if c.ConsumerMaxAttempts <= 0 {
		return fmt.Errorf("CONSUMER_MAX_ATTEMPTS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
