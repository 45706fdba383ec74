// Package records — service.go отдаёт журнал на чтение через кэш.
package records

import (
	"context"
	"fmt"
	"time"

	"serotonyl.ru/reputation-engine/internal/cache"
)

// Reader — чтение журнала из хранилища. Реализуют Repository и memory.Store.
type Reader interface {
	ByIDs(ctx context.Context, ids []int64) ([]*Record, error)
	ByRuleIDs(ctx context.Context, ruleIDs []int64) (map[int64][]*Record, error)
	ByUser(ctx context.Context, userID int64, limit int) ([]*Record, error)
}

// Service читает журнал, кэшируя записи и состав групп по правилам.
type Service struct {
	repo  Reader
	cache cache.Cache
	ttl   time.Duration
}

// NewService создаёт сервис чтения журнала.
func NewService(repo Reader, c cache.Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl}
}

func recordKey(id int64) string { return fmt.Sprintf("reputation_record:%d", id) }
func ruleGroupKey(id int64) string { return fmt.Sprintf("reputation_rule_records:%d", id) }
func recordID(rec *Record) int64 { return rec.ID }

func parseIDs(v any) ([]int64, bool) {
	ids, ok := v.([]int64)
	return ids, ok
}

// ByIDs возвращает включённые записи по id.
func (s *Service) ByIDs(ctx context.Context, ids []int64) ([]*Record, error) {
	return cache.GetByIDsOrFetchAndCache(ctx, s.cache, recordKey, ids, recordID, s.repo.ByIDs, s.ttl)
}

// ByRuleIDs возвращает включённые записи каждого правила; для каждого
// запрошенного правила есть ключ, возможно с пустым списком.
func (s *Service) ByRuleIDs(ctx context.Context, ruleIDs []int64) (map[int64][]*Record, error) {
	groups, err := cache.GetGroupedByOuterIDOrFetchAndCache(ctx, s.cache, ruleIDs, ruleGroupKey, parseIDs,
		func(ctx context.Context, missing []int64) (map[int64][]int64, error) {
			byRule, err := s.repo.ByRuleIDs(ctx, missing)
			if err != nil {
				return nil, err
			}
			out := make(map[int64][]int64, len(byRule))
			for ruleID, recs := range byRule {
				ids := make([]int64, 0, len(recs))
				for _, rec := range recs {
					// Члены группы тоже кладём в кэш: следующий ByIDs их не загрузит
					s.cache.Set(recordKey(rec.ID), rec, s.ttl)
					ids = append(ids, rec.ID)
				}
				out[ruleID] = ids
			}
			return out, nil
		}, s.ttl)
	if err != nil {
		return nil, err
	}

	var all []int64
	for _, ids := range groups {
		all = append(all, ids...)
	}
	recs, err := s.ByIDs(ctx, all)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Record, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
	}

	out := make(map[int64][]*Record, len(groups))
	for ruleID, ids := range groups {
		members := make([]*Record, 0, len(ids))
		for _, id := range ids {
			if rec, ok := byID[id]; ok {
				members = append(members, rec)
			}
		}
		out[ruleID] = members
	}
	return out, nil
}

// History возвращает последние записи пользователя (без кэша).
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ByUser(ctx, userID, limit)
}

// Forget сбрасывает кэш записи и группы её правила.
// Вызывается после создания или отключения записи.
func (s *Service) Forget(rec *Record) {
	if rec == nil {
		return
	}
	s.cache.Delete(recordKey(rec.ID))
	s.cache.Delete(ruleGroupKey(rec.RuleID))
}
