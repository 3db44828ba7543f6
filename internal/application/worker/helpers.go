package worker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func generateTransactionNSU() string {
	return fmt.Sprintf("TXN-%d", time.Now().UnixNano())
}

func generateInvoiceSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
