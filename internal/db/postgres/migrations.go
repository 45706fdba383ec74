// Package postgres — migrations.go содержит схему базы.
// SQL-миграции встроены в код для упрощения деплоя.
package postgres

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "users", migration001Users},
	{2, "reputation_rules", migration002Rules},
	{3, "reputation_records", migration003Records},
	{4, "processed_events", migration004Processed},
	{5, "event_inbox", migration005Inbox},
}

// Таблица users принадлежит подсистеме профилей; здесь описаны только
// колонки, которые меняет движок, и ограничения на них.
var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    reputation INTEGER NOT NULL DEFAULT 1,
    reputation_earned_today INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_reputation_min CHECK (reputation >= 1),
    CONSTRAINT users_earned_today_non_negative CHECK (reputation_earned_today >= 0)
);
CREATE INDEX IF NOT EXISTS idx_users_earned_today ON users(id) WHERE reputation_earned_today <> 0;
`

var migration002Rules = `
CREATE TABLE IF NOT EXISTS reputation_rules (
    id BIGSERIAL PRIMARY KEY,
    event_type VARCHAR(64) NOT NULL,
    entity_type VARCHAR(64) NOT NULL,
    reputation_target VARCHAR(64) NOT NULL,
    rule_group VARCHAR(64),
    reputation_change INTEGER NOT NULL,
    CONSTRAINT reputation_rules_ref UNIQUE (event_type, entity_type, reputation_target)
);
`

var migration003Records = `
CREATE TABLE IF NOT EXISTS reputation_records (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    reputation_rule_id BIGINT NOT NULL REFERENCES reputation_rules(id),
    entity_id BIGINT NOT NULL,
    event_id UUID NOT NULL,
    reputation_change INTEGER NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reputation_records_user ON reputation_records(user_id, created_at DESC) WHERE enabled;
CREATE INDEX IF NOT EXISTS idx_reputation_records_rule ON reputation_records(reputation_rule_id) WHERE enabled;
CREATE INDEX IF NOT EXISTS idx_reputation_records_entity ON reputation_records(user_id, entity_id, reputation_rule_id) WHERE enabled;
`

var migration004Processed = `
CREATE TABLE IF NOT EXISTS processed_events (
    event_id UUID PRIMARY KEY,
    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_processed_events_processed_at ON processed_events(processed_at);
`

// event_inbox — очередь входящих событий (транспорт pgqueue).
var migration005Inbox = `
CREATE TABLE IF NOT EXISTS event_inbox (
    id BIGSERIAL PRIMARY KEY,
    event_id UUID,
    payload BYTEA NOT NULL, -- Сырое сообщение: некорректное тоже должно попасть в очередь
    attempts INTEGER NOT NULL DEFAULT 0,
    available_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_error TEXT,
    dead BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_event_inbox_ready ON event_inbox(available_at, id) WHERE NOT dead;
`
