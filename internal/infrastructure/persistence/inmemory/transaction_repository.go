package inmemory

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*transaction.Transaction
	orderNSUs    map[string]string
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		mu:           sync.RWMutex{},
		transactions: make(map[string]*transaction.Transaction),
		orderNSUs:    make(map[string]string),
	}
}

func (r *TransactionRepository) Save(tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orderNSUs[tx.OrderNSU]; exists {
		return fmt.Errorf("order nsu %s already registered", tx.OrderNSU)
	}

	r.transactions[tx.ID] = tx.Clone()
	r.orderNSUs[tx.OrderNSU] = tx.ID
	return nil
}

func (r *TransactionRepository) Update(tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[tx.ID]; !ok {
		return transaction.ErrNotFound
	}

	r.transactions[tx.ID] = tx.Clone()
	return nil
}

func (r *TransactionRepository) FindByID(id string) (*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return tx.Clone(), nil
}

func (r *TransactionRepository) FindByOrderNSU(orderNSU string) (*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.orderNSUs[orderNSU]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	tx, ok := r.transactions[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return tx.Clone(), nil
}

// FindAll returns transactions newest first.
func (r *TransactionRepository) FindAll() ([]*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*transaction.Transaction, 0, len(r.transactions))
	for _, tx := range r.transactions {
		out = append(out, tx.Clone())
	}
	slices.SortFunc(out, func(a, b *transaction.Transaction) int {
		return cmp.Or(b.Timestamp.Compare(a.Timestamp), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}
