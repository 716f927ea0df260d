package repository

import "context"

// Transactor выполняет fn в одной транзакции хранилища. Репозитории,
// вызванные с переданным ctx, работают внутри этой транзакции.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
