// Package memory — хранилище в памяти для тестов и локального запуска (--store=memory).
// Транзакции имитируются снимком состояния и откатом при ошибке.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/records"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/features/rules"
	"serotonyl.ru/reputation-engine/internal/features/users"
)

// Store хранит пользователей, правила, журнал и маркеры обработки.
// Одна транзакция в момент времени: InTx держит мьютекс до конца fn.
type Store struct {
	mu        sync.RWMutex
	users     map[int64]users.User
	rules     map[int64]rules.Rule
	records   []records.Record
	processed map[uuid.UUID]time.Time
	failures  map[string]error

	nextRuleID   int64
	nextRecordID int64
	now          common.Clock
}

type snapshot struct {
	users        map[int64]users.User
	rules        map[int64]rules.Rule
	records      []records.Record
	processed    map[uuid.UUID]time.Time
	nextRuleID   int64
	nextRecordID int64
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		users:     make(map[int64]users.User),
		rules:     make(map[int64]rules.Rule),
		processed: make(map[uuid.UUID]time.Time),
		failures:  make(map[string]error),
		now:       common.SystemClock,
	}
}

// WithClock подменяет часы, которыми помечаются записи журнала.
func (s *Store) WithClock(now common.Clock) *Store {
	s.now = now
	return s
}

// FailNext заставляет следующий вызов операции op вернуть err.
// Имена операций совпадают с методами: IsProcessed, MarkProcessed, FindRule,
// LockUser, SaveReputation, CreateRecord, DisableLatestRecord.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

// PutUser создаёт или заменяет пользователя.
func (s *Store) PutUser(id int64, reputation, earnedToday int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = users.User{ID: id, Reputation: reputation, ReputationEarnedToday: earnedToday, UpdatedAt: s.now()}
}

// Ensure создаёт пользователя с минимальной репутацией, если его нет.
func (s *Store) Ensure(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		s.users[id] = users.User{ID: id, Reputation: users.MinReputation, UpdatedAt: s.now()}
	}
	return nil
}

// User возвращает копию пользователя.
func (s *Store) User(id int64) (users.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// PutRule добавляет правило и присваивает ему ID.
func (s *Store) PutRule(rule rules.Rule) rules.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRuleID++
	rule.ID = s.nextRuleID
	s.rules[rule.ID] = rule
	return rule
}

// Records возвращает все записи журнала, включая отключённые, в порядке создания.
func (s *Store) Records() []records.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.Record, len(s.records))
	copy(out, s.records)
	return out
}

// ProcessedCount возвращает число маркеров обработки.
func (s *Store) ProcessedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processed)
}

// MarkProcessedAt вставляет маркер напрямую (для подготовки данных).
func (s *Store) MarkProcessedAt(eventID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[eventID] = at
}

// IsProcessed проверяет наличие маркера.
func (s *Store) IsProcessed(_ context.Context, eventID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("IsProcessed"); err != nil {
		return false, err
	}
	_, ok := s.processed[eventID]
	return ok, nil
}

// InTx выполняет fn над представлением хранилища; при ошибке состояние откатывается.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx reputation.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, &txView{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:        make(map[int64]users.User, len(s.users)),
		rules:        make(map[int64]rules.Rule, len(s.rules)),
		records:      make([]records.Record, len(s.records)),
		processed:    make(map[uuid.UUID]time.Time, len(s.processed)),
		nextRuleID:   s.nextRuleID,
		nextRecordID: s.nextRecordID,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.rules {
		snap.rules[k] = v
	}
	copy(snap.records, s.records)
	for k, v := range s.processed {
		snap.processed[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.rules = snap.rules
	s.records = snap.records
	s.processed = snap.processed
	s.nextRuleID = snap.nextRuleID
	s.nextRecordID = snap.nextRecordID
}

// ResetDailyEarned обнуляет дневной заработок всех пользователей.
func (s *Store) ResetDailyEarned(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, u := range s.users {
		if u.ReputationEarnedToday == 0 {
			continue
		}
		u.ReputationEarnedToday = 0
		u.UpdatedAt = s.now()
		s.users[id] = u
		n++
	}
	return n, nil
}

// PurgeOlderThan удаляет маркеры старше threshold.
func (s *Store) PurgeOlderThan(_ context.Context, threshold time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, at := range s.processed {
		if at.Before(threshold) {
			delete(s.processed, id)
			n++
		}
	}
	return n, nil
}

// ByIDs возвращает включённые записи по id.
func (s *Store) ByIDs(_ context.Context, ids []int64) ([]*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*records.Record
	for i := range s.records {
		rec := s.records[i]
		if _, ok := want[rec.ID]; ok && rec.Enabled {
			out = append(out, &rec)
		}
	}
	return out, nil
}

// ByRuleIDs возвращает включённые записи, сгруппированные по правилу, новые первыми.
func (s *Store) ByRuleIDs(_ context.Context, ruleIDs []int64) (map[int64][]*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[int64]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		want[id] = struct{}{}
	}
	out := make(map[int64][]*records.Record, len(ruleIDs))
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if _, ok := want[rec.RuleID]; ok && rec.Enabled {
			out[rec.RuleID] = append(out[rec.RuleID], &rec)
		}
	}
	return out, nil
}

// ByUser возвращает последние limit включённых записей пользователя.
func (s *Store) ByUser(_ context.Context, userID int64, limit int) ([]*records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*records.Record
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.records[i]
		if rec.UserID == userID && rec.Enabled {
			out = append(out, &rec)
		}
	}
	return out, nil
}

// Rules возвращает административный доступ к правилам.
func (s *Store) Rules() rules.Store {
	return ruleStore{s: s}
}

type ruleStore struct {
	s *Store
}

func (r ruleStore) List(_ context.Context) ([]*rules.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*rules.Rule, 0, len(r.s.rules))
	for _, rule := range r.s.rules {
		rule := rule
		out = append(out, &rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r ruleStore) Upsert(_ context.Context, rule *rules.Rule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.rules {
		if existing.Ref() == rule.Ref() {
			rule.ID = id
			r.s.rules[id] = *rule
			return nil
		}
	}
	r.s.nextRuleID++
	rule.ID = r.s.nextRuleID
	r.s.rules[rule.ID] = *rule
	return nil
}

// txView — операции транзакции. Мьютекс уже захвачен InTx.
type txView struct {
	s *Store
}

func (t *txView) MarkProcessed(_ context.Context, eventID uuid.UUID, at time.Time) (bool, error) {
	if err := t.s.failure("MarkProcessed"); err != nil {
		return false, err
	}
	if _, ok := t.s.processed[eventID]; ok {
		return false, nil
	}
	t.s.processed[eventID] = at
	return true, nil
}

func (t *txView) FindRule(_ context.Context, ref rules.RuleRef) (*rules.Rule, error) {
	if err := t.s.failure("FindRule"); err != nil {
		return nil, err
	}
	for _, r := range t.s.rules {
		if r.Ref() == ref {
			r := r
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, ref)
}

func (t *txView) LockUser(_ context.Context, userID int64) (*users.User, error) {
	if err := t.s.failure("LockUser"); err != nil {
		return nil, err
	}
	u, ok := t.s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w (user_id=%d)", common.ErrUserNotFound, userID)
	}
	return &u, nil
}

func (t *txView) SaveReputation(_ context.Context, userID int64, reputation, earnedToday int) error {
	if err := t.s.failure("SaveReputation"); err != nil {
		return err
	}
	u, ok := t.s.users[userID]
	if !ok {
		return fmt.Errorf("%w (user_id=%d)", common.ErrUserNotFound, userID)
	}
	// Те же ограничения, что CHECK в таблице users
	if reputation < users.MinReputation || earnedToday < 0 {
		return fmt.Errorf("нарушено ограничение users (reputation=%d, earned=%d)", reputation, earnedToday)
	}
	u.Reputation = reputation
	u.ReputationEarnedToday = earnedToday
	u.UpdatedAt = t.s.now()
	t.s.users[userID] = u
	return nil
}

func (t *txView) CreateRecord(_ context.Context, rec *records.Record) error {
	if err := t.s.failure("CreateRecord"); err != nil {
		return err
	}
	t.s.nextRecordID++
	rec.ID = t.s.nextRecordID
	rec.Enabled = true
	rec.CreatedAt = t.s.now()
	t.s.records = append(t.s.records, *rec)
	return nil
}

func (t *txView) DisableLatestRecord(_ context.Context, userID, entityID, ruleID int64) (*records.Record, error) {
	if err := t.s.failure("DisableLatestRecord"); err != nil {
		return nil, err
	}
	for i := len(t.s.records) - 1; i >= 0; i-- {
		rec := &t.s.records[i]
		if rec.UserID == userID && rec.EntityID == entityID && rec.RuleID == ruleID && rec.Enabled {
			rec.Enabled = false
			out := *rec
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w (user_id=%d, entity_id=%d, rule_id=%d)", common.ErrRecordNotFound, userID, entityID, ruleID)
}
