// Package tr связывает менеджер транзакций avito с pgx: репозитории подхватывают
// транзакцию из контекста.
package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Manager выполняет fn в транзакции, вложенные вызовы присоединяются к внешней.
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewManager создаёт менеджер транзакций поверх пула.
func NewManager(pool *pgxpool.Pool) (*manager.Manager, error) {
	return manager.New(trmpgx.NewDefaultFactory(pool))
}

// Conn возвращает транзакцию из ctx или пул, если транзакции нет.
func Conn(ctx context.Context, pool *pgxpool.Pool) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, pool)
}
