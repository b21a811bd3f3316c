package repo

import (
	"context"
	"errors"
)

var (
	ErrDuplicateHash = errors.New("duplicate hash")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyGraded = errors.New("bet already graded")
)

// Repository define as operações do ledger de apostas.
// Filtros de visibilidade recebem o tier do leitor e seguem a inclusão FREE ⊆ PREMIUM ⊆ STAFF.
// Datas vazias em from/to deixam o intervalo aberto daquele lado.
type Repository interface {
	// Insert falha com ErrDuplicateHash se o hash já existir
	Insert(ctx context.Context, b *Bet) (int64, error)
	// BulkInsert roda numa única transação; hashes repetidos são pulados e contados
	BulkInsert(ctx context.Context, bets []Bet) (BulkResult, error)

	Get(ctx context.Context, id int64) (*Bet, error)
	// Settle grava o desfecho apenas se a aposta ainda estiver PENDING
	Settle(ctx context.Context, id int64, s Settlement) error
	UpdateVisibility(ctx context.Context, id int64, tier Tier) error
	BulkUpdateVisibilityByDate(ctx context.Context, date string, tier Tier) (int64, error)
	UpdateNotes(ctx context.Context, id int64, notes string) error

	ByDate(ctx context.Context, date string, viewer Tier) ([]Bet, error)
	SettledInRange(ctx context.Context, from, to string, viewer Tier) ([]Bet, error)
	PendingByDate(ctx context.Context, date string, viewer Tier) ([]Bet, error)
	PendingInRange(ctx context.Context, from, to string, viewer Tier) ([]Bet, error)
	Count(ctx context.Context) (int64, error)

	// Marcador "recap já postado" usado pelo agendador externo (at-most-once por dia)
	HasRecapForDate(ctx context.Context, date string) (bool, error)
	// RecordRecapPost devolve true se o marcador foi criado agora
	RecordRecapPost(ctx context.Context, date string) (bool, error)
}

// MappingStore persiste os overrides de mapeamento de colunas (campo canônico -> header)
type MappingStore interface {
	MappingOverrides(ctx context.Context) (map[string]string, error)
	SetMappingOverride(ctx context.Context, field, header string) error
	ResetMappingOverrides(ctx context.Context) error
}

// KV é o armazenamento bruto das configurações; o schema por chave fica no pacote settings
type KV interface {
	Setting(ctx context.Context, key string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, key, value string) error
}

// Store junta tudo o que o ledger-service precisa do banco
type Store interface {
	Repository
	MappingStore
	KV
	Ping(ctx context.Context) error
}
