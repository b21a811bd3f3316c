// Package settings expõe as configurações de operação guardadas no banco, com tipo fixo por chave.
package settings

import (
	"context"
	"fmt"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
)

// Chaves conhecidas
const (
	KeyDefaultImportTier = "default_import_tier"
	KeyRecapTier         = "recap_tier"
)

// Settings lê e grava as chaves sobre o KV do store
type Settings struct {
	kv repo.KV
}

func New(kv repo.KV) *Settings { return &Settings{kv: kv} }

// DefaultImportTier é o tier aplicado às linhas sem visibilidade própria; padrão STAFF
func (s *Settings) DefaultImportTier(ctx context.Context) (repo.Tier, error) {
	return s.tier(ctx, KeyDefaultImportTier, repo.TierStaff)
}

func (s *Settings) SetDefaultImportTier(ctx context.Context, t repo.Tier) error {
	return s.setTier(ctx, KeyDefaultImportTier, t)
}

// RecapTier é o público do recap diário publicado; padrão FREE
func (s *Settings) RecapTier(ctx context.Context) (repo.Tier, error) {
	return s.tier(ctx, KeyRecapTier, repo.TierFree)
}

func (s *Settings) SetRecapTier(ctx context.Context, t repo.Tier) error {
	return s.setTier(ctx, KeyRecapTier, t)
}

func (s *Settings) tier(ctx context.Context, key string, def repo.Tier) (repo.Tier, error) {
	v, ok, err := s.kv.Setting(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	t, err := repo.ParseTier(v)
	if err != nil {
		return "", fmt.Errorf("setting %s: %w", key, err)
	}
	return t, nil
}

func (s *Settings) setTier(ctx context.Context, key string, t repo.Tier) error {
	if !t.Valid() {
		return fmt.Errorf("setting %s: invalid tier %q", key, t)
	}
	return s.kv.SetSetting(ctx, key, string(t))
}
