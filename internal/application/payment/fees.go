package payment

import "github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"

// Rates in basis points.
const (
	feeDebitBps           = 150
	feeCreditSpotBps      = 300
	feeInstallmentBaseBps = 400
	feePerInstallmentBps  = 100
	maxInstallments       = 12
	minSplitInstallments  = 2
)

func feeRateBps(t transaction.Type, installments int) int64 {
	switch t {
	case transaction.TypeDebit:
		return feeDebitBps
	case transaction.TypeCreditSpot:
		return feeCreditSpotBps
	case transaction.TypeCreditInstallment:
		return feeInstallmentBaseBps + int64(installments)*feePerInstallmentBps
	}
	return 0
}

// Fee returns the processor fee in cents, rounded half up.
func Fee(amount int64, t transaction.Type, installments int) int64 {
	return (amount*feeRateBps(t, installments) + 5_000) / 10_000
}

func NetAmount(amount int64, t transaction.Type, installments int) int64 {
	return amount - Fee(amount, t, installments)
}
