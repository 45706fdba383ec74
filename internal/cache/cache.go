// Package cache реализует пакетное чтение по схеме cache-aside.
// Кэш — go-cache в памяти процесса; наружу торчит только узкий интерфейс Cache,
// так что бэкенд можно заменить без правок вызывающего кода.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache — то, что нужно загрузчику от хранилища кэша.
// *gocache.Cache реализует его напрямую.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// New создаёт кэш в памяти.
func New(defaultTTL, cleanupInterval time.Duration) *gocache.Cache {
	return gocache.New(defaultTTL, cleanupInterval)
}

// GetByIDsOrFetchAndCache возвращает сущности по id.
// Попадания берутся из кэша; все промахи загружаются одним вызовом fetch,
// каждая загруженная сущность кладётся в кэш под своим ключом с ttl.
// Результат содержит ровно одну запись на каждый существующий id, порядок не гарантируется.
func GetByIDsOrFetchAndCache[K comparable, V any](
	ctx context.Context,
	c Cache,
	keyFn func(K) string,
	ids []K,
	idOf func(V) K,
	fetch func(ctx context.Context, missing []K) ([]V, error),
	ttl time.Duration,
) ([]V, error) {
	seen := make(map[K]struct{}, len(ids))
	out := make([]V, 0, len(ids))
	var missing []K

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if cached, ok := c.Get(keyFn(id)); ok {
			if v, ok := cached.(V); ok {
				out = append(out, v)
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return nil, err
	}

	wanted := make(map[K]struct{}, len(missing))
	for _, id := range missing {
		wanted[id] = struct{}{}
	}
	for _, v := range fetched {
		id := idOf(v)
		if _, ok := wanted[id]; !ok {
			// Лишнее или повторное — не запрашивали
			continue
		}
		delete(wanted, id)
		c.Set(keyFn(id), v, ttl)
		out = append(out, v)
	}
	return out, nil
}

// GetGroupedByOuterIDOrFetchAndCache возвращает группы членов по внешним id
// (например, id записей по id правила).
// Закэшированное множество разбирается parseFn; для промахов fetch вызывается
// один раз, членство каждой группы кладётся в кэш, включая пустые группы.
// В результате есть ключ для каждого запрошенного внешнего id.
func GetGroupedByOuterIDOrFetchAndCache[O comparable, M any](
	ctx context.Context,
	c Cache,
	outerIDs []O,
	keyFn func(O) string,
	parseFn func(cached any) ([]M, bool),
	fetch func(ctx context.Context, missing []O) (map[O][]M, error),
	ttl time.Duration,
) (map[O][]M, error) {
	groups := make(map[O][]M, len(outerIDs))
	var missing []O

	for _, id := range outerIDs {
		if _, done := groups[id]; done {
			continue
		}
		if cached, ok := c.Get(keyFn(id)); ok {
			if members, ok := parseFn(cached); ok {
				groups[id] = members
				continue
			}
		}
		// Помечаем, чтобы не добавить id в missing дважды
		groups[id] = nil
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return groups, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return nil, err
	}

	for _, id := range missing {
		members := fetched[id]
		if members == nil {
			members = []M{}
		}
		c.Set(keyFn(id), members, ttl)
		groups[id] = members
	}
	return groups, nil
}
