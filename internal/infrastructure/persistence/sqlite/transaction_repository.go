package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

const transactionColumns = `id, order_nsu, amount, net_amount, type, installments, status,
	timestamp_ns, message, checkout_url, receipt_url, transaction_nsu,
	invoice_slug, card_holder, card_last4`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(tx *transaction.Transaction) error {
	_, err := r.db.Exec(
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.OrderNSU,
		tx.Amount,
		nullInt64(tx.NetAmount),
		string(tx.Type),
		tx.Installments,
		string(tx.Status),
		tx.Timestamp.UnixNano(),
		tx.Message,
		tx.CheckoutURL,
		tx.ReceiptURL,
		tx.TransactionNSU,
		tx.InvoiceSlug,
		tx.CardHolder,
		tx.CardLast4,
	)
	return err
}

func (r *TransactionRepository) Update(tx *transaction.Transaction) error {
	res, err := r.db.Exec(
		`UPDATE transactions
		 SET net_amount = ?, installments = ?, status = ?, timestamp_ns = ?,
		     message = ?, receipt_url = ?, transaction_nsu = ?, invoice_slug = ?
		 WHERE id = ?`,
		nullInt64(tx.NetAmount),
		tx.Installments,
		string(tx.Status),
		tx.Timestamp.UnixNano(),
		tx.Message,
		tx.ReceiptURL,
		tx.TransactionNSU,
		tx.InvoiceSlug,
		tx.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func (r *TransactionRepository) FindByID(id string) (*transaction.Transaction, error) {
	row := r.db.QueryRow(
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		id,
	)
	return scanTransaction(row)
}

func (r *TransactionRepository) FindByOrderNSU(orderNSU string) (*transaction.Transaction, error) {
	row := r.db.QueryRow(
		`SELECT `+transactionColumns+` FROM transactions WHERE order_nsu = ?`,
		orderNSU,
	)
	return scanTransaction(row)
}

func (r *TransactionRepository) FindAll() ([]*transaction.Transaction, error) {
	rows, err := r.db.Query(
		`SELECT ` + transactionColumns + ` FROM transactions
		 ORDER BY timestamp_ns DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}

	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*transaction.Transaction, error) {
	var (
		tx          transaction.Transaction
		netAmount   sql.NullInt64
		typ         string
		status      string
		timestampNs int64
	)

	if err := row.Scan(
		&tx.ID,
		&tx.OrderNSU,
		&tx.Amount,
		&netAmount,
		&typ,
		&tx.Installments,
		&status,
		&timestampNs,
		&tx.Message,
		&tx.CheckoutURL,
		&tx.ReceiptURL,
		&tx.TransactionNSU,
		&tx.InvoiceSlug,
		&tx.CardHolder,
		&tx.CardLast4,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, err
	}

	if netAmount.Valid {
		net := netAmount.Int64
		tx.NetAmount = &net
	}
	tx.Type = transaction.Type(typ)
	tx.Status = transaction.Status(status)
	tx.Timestamp = time.Unix(0, timestampNs).UTC()

	return &tx, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
