// Package rules — loader.go загружает таблицу изменений из YAML-файла.
//
// Формат файла:
//
//	rules:
//	  - event_type: entity-upvoted
//	    change: 5
//	  - event_type: entity-downvoted
//	    change: -1
//
// Типы, не перечисленные в файле, берут значения из встроенной таблицы.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type registryFile struct {
	Rules []registryEntry `yaml:"rules"`
}

type registryEntry struct {
	EventType string `yaml:"event_type"`
	Change    int    `yaml:"change"`
}

// LoadRegistryFile читает файл и собирает реестр.
// Пустой путь — встроенная таблица.
func LoadRegistryFile(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл правил: %w", err)
	}
	r, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("файл правил %s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry разбирает YAML и накладывает значения на встроенную таблицу.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}

	overrides := make(map[EventType]int, len(f.Rules))
	for _, e := range f.Rules {
		t, err := ParseEventType(e.EventType)
		if err != nil {
			return nil, err
		}
		if _, dup := overrides[t]; dup {
			return nil, fmt.Errorf("тип %q указан в файле дважды", t)
		}
		overrides[t] = e.Change
	}

	return NewRegistry(defaultStrategies(overrides)...)
}
