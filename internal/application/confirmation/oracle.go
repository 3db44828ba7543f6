package confirmation

import (
	"context"
	"errors"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

var ErrMalformedStatus = errors.New("malformed payment status")

// Reference correlates a poll session with one payment attempt. The
// checkout flow uses the order NSU.
type Reference string

// StatusOracle reports the latest known state of a payment. It is called
// once per probe tick and must tolerate being called repeatedly.
type StatusOracle interface {
	Check(ctx context.Context, ref Reference) (transaction.Transaction, error)
}

type StatusOracleFunc func(ctx context.Context, ref Reference) (transaction.Transaction, error)

func (f StatusOracleFunc) Check(ctx context.Context, ref Reference) (transaction.Transaction, error) {
	return f(ctx, ref)
}
