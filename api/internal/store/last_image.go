// Package store хранит LastImageReference: последнее принятое изображение пользователя.
//
// Инвариант для всех реализаций: last write wins по ключу userID. Записи
// разных пользователей независимы; Get после Set того же ключа видит последнее значение.
package store

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("last image not found")

// LastImageStore — возможность "запомнить/вспомнить последнее изображение пользователя".
type LastImageStore interface {
	Get(ctx context.Context, userID int64) (string, error)
	Set(ctx context.Context, userID int64, ref string) error
}

// MemoryLastImage — на время жизни процесса.
type MemoryLastImage struct {
	m sync.Map // userID -> string
}

func NewMemoryLastImage() *MemoryLastImage { return &MemoryLastImage{} }

func (s *MemoryLastImage) Get(_ context.Context, userID int64) (string, error) {
	if v, ok := s.m.Load(userID); ok {
		if ref, _ := v.(string); ref != "" {
			return ref, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryLastImage) Set(_ context.Context, userID int64, ref string) error {
	s.m.Store(userID, ref)
	return nil
}
