// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт хранилище, реестр правил, движок,
// потребителя, транспорт и планировщик и собирает всё в один объект App.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-engine/internal/cache"
	"serotonyl.ru/reputation-engine/internal/config"
	"serotonyl.ru/reputation-engine/internal/consumer"
	"serotonyl.ru/reputation-engine/internal/db/memory"
	"serotonyl.ru/reputation-engine/internal/db/postgres"
	"serotonyl.ru/reputation-engine/internal/features/processed"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/features/rules"
	"serotonyl.ru/reputation-engine/internal/features/users"
	"serotonyl.ru/reputation-engine/internal/jobs"
	"serotonyl.ru/reputation-engine/internal/transport"
	"serotonyl.ru/reputation-engine/internal/transport/pgqueue"
)

// Режимы хранилища
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// publisher кладёт событие во входящую очередь.
type publisher func(ctx context.Context, ev reputation.Event) error

// userEnsurer создаёт строку пользователя при локальной разработке.
type userEnsurer interface {
	Ensure(ctx context.Context, userID int64) error
}

// App содержит все компоненты приложения.
type App struct {
	Config    *config.Config
	Registry  *rules.Registry
	Engine    *reputation.Engine
	Consumer  *reputation.Consumer
	Records   *records.Service
	Users     *users.Service
	Processed *processed.Service
	Rules     rules.Store
	Runner    *consumer.Runner
	Scheduler *jobs.Scheduler

	DB     *pgxpool.Pool     // Только для --store=postgres
	Queue  *pgqueue.Queue    // Только для --store=postgres
	Memory *memory.Store     // Только для --store=memory
	Inbox  *transport.Memory // Только для --store=memory

	publish publisher
	users   userEnsurer
}

// parts — то, чем режимы хранилища отличаются друг от друга.
type parts struct {
	store   reputation.Store
	reader  records.Reader
	resets  users.DailyResetter
	purges  processed.Purger
	rules   rules.Store
	users   userEnsurer
	source  transport.Source
	publish publisher
}

// New создаёт приложение поверх PostgreSQL.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Очередь входящих событий ===
	queue := pgqueue.New(pool, pgqueue.Options{
		Lease:       cfg.ConsumerLease,
		MaxAttempts: cfg.ConsumerMaxAttempts,
	})

	recordRepo := records.NewRepository(pool)
	usersRepo := users.NewRepository(pool)
	a, err := build(cfg, parts{
		store:   postgres.NewStore(pool),
		reader:  recordRepo,
		resets:  usersRepo,
		purges:  processed.NewRepository(pool),
		rules:   rules.NewRepository(pool),
		users:   usersRepo,
		source:  queue,
		publish: func(ctx context.Context, ev reputation.Event) error {
			_, err := queue.Publish(ctx, ev)
			return err
		},
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	a.DB = pool
	a.Queue = queue
	return a, nil
}

// NewInMemory создаёт приложение без БД: хранилище и очередь живут в памяти процесса.
// Правила засеваются из реестра для REPUTATION_ENTITY_TYPES.
func NewInMemory(ctx context.Context, cfg *config.Config) (*App, error) {
	store := memory.NewStore()
	inbox := transport.NewMemory(cfg.ConsumerMaxAttempts)

	a, err := build(cfg, parts{
		store:  store,
		reader: store,
		resets: store,
		purges: store,
		rules:  store.Rules(),
		users:  store,
		source: inbox,
		publish: func(_ context.Context, ev reputation.Event) error {
			body, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("ошибка сериализации события: %w", err)
			}
			inbox.Publish(body)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	seeded, err := a.SeedRules(ctx, cfg.ReputationEntityTypes)
	if err != nil {
		return nil, err
	}
	log.WithField("rules", len(seeded)).Info("Правила засеяны в память")

	a.Memory = store
	a.Inbox = inbox
	return a, nil
}

// Open выбирает режим хранилища по имени.
func Open(ctx context.Context, cfg *config.Config, mode string) (*App, error) {
	switch mode {
	case StorePostgres:
		return New(ctx, cfg)
	case StoreMemory:
		return NewInMemory(ctx, cfg)
	default:
		return nil, fmt.Errorf("неизвестное хранилище %q: допустимо %s или %s", mode, StorePostgres, StoreMemory)
	}
}

func build(cfg *config.Config, p parts) (*App, error) {
	// === 1. Реестр правил ===
	registry, err := rules.LoadRegistryFile(cfg.ReputationRulesFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки правил: %w", err)
	}

	// === 2. Сервисы ===
	recordService := records.NewService(p.reader, cache.New(cfg.CacheTTL, cfg.CacheCleanupInterval), cfg.CacheTTL)
	userService := users.NewService(p.resets, cfg.Location())
	processedService := processed.NewService(p.purges, cfg.ProcessedEventsRetention)

	// === 3. Движок и потребитель ===
	engine := reputation.NewEngine(cfg.ReputationMaxDaily)
	c := reputation.NewConsumer(p.store, engine, registry,
		reputation.WithTarget(cfg.ReputationTarget),
		reputation.WithDisableCancelled(cfg.ReputationDisableCancelled),
		reputation.WithAfterApply(func(out reputation.Outcome) {
			recordService.Forget(out.Record)
			recordService.Forget(out.Disabled)
		}),
	)

	// === 4. Цикл обработки ===
	runner := consumer.NewRunner(p.source, c, consumer.Options{
		BatchSize:    cfg.ConsumerBatchSize,
		PollInterval: cfg.ConsumerPollInterval,
		MaxInflight:  cfg.ConsumerMaxInflight,
	})

	// === 5. Планировщик задач ===
	scheduler := jobs.NewScheduler(userService, processedService, jobs.Specs{
		DailyReset: cfg.JobsDailyResetSpec,
		Purge:      cfg.JobsPurgeSpec,
	}, cfg.Location())

	return &App{
		Config:    cfg,
		Registry:  registry,
		Engine:    engine,
		Consumer:  c,
		Records:   recordService,
		Users:     userService,
		Processed: processedService,
		Rules:     p.rules,
		Runner:    runner,
		Scheduler: scheduler,
		publish:   p.publish,
		users:     p.users,
	}, nil
}

// SeedRules засевает правила для каждой стратегии реестра и каждого типа сущности.
func (a *App) SeedRules(ctx context.Context, entityTypes []string) ([]*rules.Rule, error) {
	return rules.Seed(ctx, a.Rules, a.Registry, entityTypes, a.Config.ReputationTarget)
}

// Publish кладёт событие во входящую очередь.
func (a *App) Publish(ctx context.Context, ev reputation.Event) error {
	return a.publish(ctx, ev)
}

// EnsureUser создаёт пользователя с минимальной репутацией, если его нет.
func (a *App) EnsureUser(ctx context.Context, userID int64) error {
	return a.users.Ensure(ctx, userID)
}

// Close освобождает ресурсы.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
