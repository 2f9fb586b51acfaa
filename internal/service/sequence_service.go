package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// VersionCounter — хранилище, выдающее номера версий.
type VersionCounter interface {
	Increment(ctx context.Context) (int64, error)
	AllVersions(ctx context.Context) ([]string, error)
	RaiseTo(ctx context.Context, value int64) error
}

// SequenceService выдает строго возрастающие номера версий документов.
// Выдача идет через атомарный инкремент счетчика в базе, а не через
// просмотр максимума с последующей записью: конкурентные загрузки не могут
// получить одинаковый номер.
type SequenceService struct {
	counter VersionCounter
}

func NewSequenceService(counter VersionCounter) *SequenceService {
	return &SequenceService{counter: counter}
}

// Next возвращает следующий номер версии. Вызывается по одному разу на
// загрузку и на замену содержимого, непосредственно перед записью.
func (s *SequenceService) Next(ctx context.Context) (int64, error) {
	value, err := s.counter.Increment(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate version: %w", err)
	}
	return value, nil
}

// SyncCounter поднимает счетчик до максимума среди уже сохраненных версий.
// Версии хранятся текстом; нечисловые и некорректные значения пропускаются
// с записью в лог и никогда не считаются фатальными. Запускается на старте,
// ошибки чтения хранилища отдаются вызывающему без повторов.
func (s *SequenceService) SyncCounter(ctx context.Context) error {
	versions, err := s.counter.AllVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan stored versions: %w", err)
	}

	var max int64
	for _, raw := range versions {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n <= 0 {
			log.Printf("Skipping malformed version number %q", raw)
			continue
		}
		if n > max {
			max = n
		}
	}

	if max == 0 {
		return nil
	}

	if err := s.counter.RaiseTo(ctx, max); err != nil {
		return fmt.Errorf("failed to sync version counter: %w", err)
	}

	return nil
}
