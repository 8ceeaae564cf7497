package shared

import "context"

// TransactionManager runs a function with every repository call made through
// the derived context joined into one database transaction. An error from
// the function rolls the whole unit back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
