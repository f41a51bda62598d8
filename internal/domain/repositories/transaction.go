package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. The context passed to fn
// carries the transaction; repositories pick it up via GetTx.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
