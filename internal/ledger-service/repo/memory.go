package repo

import (
	"context"
	"sync"
	"time"
)

// MemoryStore é o ledger em memória, usado nos testes dos serviços e da API.
// O mutex faz o papel da transação: BulkInsert é visível por inteiro ou não é visível.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	bets     []Bet // ordenadas por id
	byHash   map[string]int
	mappings map[string]string
	settings map[string]string
	recaps   map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byHash:   make(map[string]int),
		mappings: make(map[string]string),
		settings: make(map[string]string),
		recaps:   make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) insertLocked(b *Bet) bool {
	if _, ok := m.byHash[b.Hash]; ok {
		return false
	}
	m.nextID++
	b.ID = m.nextID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = m.now().UTC()
	}
	m.byHash[b.Hash] = len(m.bets)
	m.bets = append(m.bets, cloneBet(*b))
	return true
}

func (m *MemoryStore) Insert(_ context.Context, b *Bet) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.insertLocked(b) {
		return 0, ErrDuplicateHash
	}
	return b.ID, nil
}

func (m *MemoryStore) BulkInsert(_ context.Context, bets []Bet) (BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res BulkResult
	for i := range bets {
		if !m.insertLocked(&bets[i]) {
			res.Duplicates++
			continue
		}
		res.Inserted++
		res.IDs = append(res.IDs, bets[i].ID)
	}
	return res, nil
}

func (m *MemoryStore) find(id int64) (int, bool) {
	for i := range m.bets {
		if m.bets[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.find(id)
	if !ok {
		return nil, ErrNotFound
	}
	b := cloneBet(m.bets[i])
	return &b, nil
}

func (m *MemoryStore) Settle(_ context.Context, id int64, s Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(id)
	if !ok {
		return ErrNotFound
	}
	b := &m.bets[i]
	if b.Result != ResultPending {
		return ErrAlreadyGraded
	}
	b.Result = s.Result
	b.Odds = copyInt(s.Odds)
	b.Profit = FloatPtr(s.Profit)
	b.Payout = copyFloat(s.Payout)
	b.SettledAt = s.SettledAt
	return nil
}

func (m *MemoryStore) UpdateVisibility(_ context.Context, id int64, tier Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(id)
	if !ok {
		return ErrNotFound
	}
	m.bets[i].Visibility = tier
	return nil
}

func (m *MemoryStore) BulkUpdateVisibilityByDate(_ context.Context, date string, tier Tier) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.bets {
		if m.bets[i].EffectiveDate() == date {
			m.bets[i].Visibility = tier
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) UpdateNotes(_ context.Context, id int64, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(id)
	if !ok {
		return ErrNotFound
	}
	m.bets[i].Notes = notes
	return nil
}

func (m *MemoryStore) ByDate(_ context.Context, date string, viewer Tier) ([]Bet, error) {
	return m.filter(viewer, func(b *Bet) bool { return b.EffectiveDate() == date }), nil
}

func (m *MemoryStore) SettledInRange(_ context.Context, from, to string, viewer Tier) ([]Bet, error) {
	return m.filter(viewer, func(b *Bet) bool {
		return b.Result != ResultPending && inRange(b.SettledAt, from, to)
	}), nil
}

func (m *MemoryStore) PendingByDate(_ context.Context, date string, viewer Tier) ([]Bet, error) {
	return m.filter(viewer, func(b *Bet) bool {
		return b.Result == ResultPending && b.EffectiveDate() == date
	}), nil
}

func (m *MemoryStore) PendingInRange(_ context.Context, from, to string, viewer Tier) ([]Bet, error) {
	return m.filter(viewer, func(b *Bet) bool {
		return b.Result == ResultPending && inRange(b.PlacedAt, from, to)
	}), nil
}

func (m *MemoryStore) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.bets)), nil
}

func (m *MemoryStore) HasRecapForDate(_ context.Context, date string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.recaps[date]
	return ok, nil
}

func (m *MemoryStore) RecordRecapPost(_ context.Context, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recaps[date]; ok {
		return false, nil
	}
	m.recaps[date] = m.now().UTC()
	return true, nil
}

func (m *MemoryStore) MappingOverrides(context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.mappings))
	for k, v := range m.mappings {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SetMappingOverride(_ context.Context, field, header string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[field] = header
	return nil
}

func (m *MemoryStore) ResetMappingOverrides(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings = make(map[string]string)
	return nil
}

func (m *MemoryStore) Setting(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStore) filter(viewer Tier, keep func(*Bet) bool) []Bet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Bet
	for i := range m.bets {
		b := &m.bets[i]
		if viewer.CanSee(b.Visibility) && keep(b) {
			out = append(out, cloneBet(*b))
		}
	}
	return out
}

// inRange compara datas YYYY-MM-DD lexicograficamente; data vazia só entra em intervalo aberto
func inRange(date, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	if date == "" {
		return false
	}
	return (from == "" || date >= from) && (to == "" || date <= to)
}

func cloneBet(b Bet) Bet {
	b.Odds = copyInt(b.Odds)
	b.Payout = copyFloat(b.Payout)
	b.Profit = copyFloat(b.Profit)
	return b
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return IntPtr(*v)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return FloatPtr(*v)
}
