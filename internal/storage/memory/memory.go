// Package memory provides an in-memory subscription store for local
// development and tests. It mirrors the SQLite repository's behavior,
// including soft deletes and the single-slot exchange rate cache, without
// touching disk.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

type record struct {
	sub     core.Subscription
	seq     int64
	version int64
	deleted bool
}

type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	nextSeq int64

	rateSet     bool
	rate        decimal.Decimal
	rateUpdated time.Time
}

func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

func (s *Store) Close() error { return nil }

func (s *Store) Insert(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[sub.ID]; ok && !r.deleted {
		return errors.New("subscription already exists: " + sub.ID)
	}
	s.nextSeq++
	s.records[sub.ID] = &record{sub: sub, seq: s.nextSeq, version: 1}
	return nil
}

func (s *Store) Update(_ context.Context, sub core.Subscription) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[sub.ID]
	if !ok || r.deleted {
		return 0, storage.ErrNotFound
	}
	r.sub = sub
	r.version++
	return r.version, nil
}

func (s *Store) SoftDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.deleted {
		return storage.ErrNotFound
	}
	r.deleted = true
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.deleted {
		return core.Subscription{}, storage.ErrNotFound
	}
	return r.sub, nil
}

// List returns live subscriptions in insertion order, matching the SQLite
// repository's created_at ordering.
func (s *Store) List(_ context.Context) ([]core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := make([]*record, 0, len(s.records))
	for _, r := range s.records {
		if !r.deleted {
			live = append(live, r)
		}
	}
	for i := 1; i < len(live); i++ {
		for j := i; j > 0 && live[j].seq < live[j-1].seq; j-- {
			live[j], live[j-1] = live[j-1], live[j]
		}
	}

	out := make([]core.Subscription, len(live))
	for i, r := range live {
		out[i] = r.sub
	}
	return out, nil
}

func (s *Store) ReplaceAll(_ context.Context, subs []core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*record, len(subs))
	s.nextSeq = 0
	for _, sub := range subs {
		s.nextSeq++
		s.records[sub.ID] = &record{sub: sub, seq: s.nextSeq, version: 1}
	}
	return nil
}

func (s *Store) LoadRate(_ context.Context) (decimal.Decimal, time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.rateSet {
		return decimal.Zero, time.Time{}, false, nil
	}
	return s.rate, s.rateUpdated, true, nil
}

func (s *Store) SaveRate(_ context.Context, rate decimal.Decimal, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateSet = true
	s.rate = rate
	s.rateUpdated = updatedAt
	return nil
}
