package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Receipt mirrors the 'submission_receipts' table: one row per submission
// the remote service confirmed.
type Receipt struct {
	ID             uint64    `json:"id"`
	ConfirmationID string    `json:"confirmation_id"`
	FlowID         string    `json:"flow_id"`
	Kind           string    `json:"kind"`
	UserID         string    `json:"user_id"`
	Anonymous      bool      `json:"anonymous"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

const receiptSchema = `CREATE TABLE IF NOT EXISTS submission_receipts (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	confirmation_id VARCHAR(128) NOT NULL,
	flow_id VARCHAR(64) NOT NULL,
	kind VARCHAR(16) NOT NULL,
	user_id VARCHAR(64) NOT NULL,
	anonymous BOOLEAN NOT NULL DEFAULT FALSE,
	confirmed_at DATETIME NOT NULL,
	UNIQUE KEY uq_receipt_confirmation (kind, confirmation_id),
	KEY idx_receipt_user (user_id, confirmed_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

type ReceiptRepo struct{ DB *sql.DB }

func NewReceiptRepo(db *sql.DB) *ReceiptRepo { return &ReceiptRepo{DB: db} }

// EnsureSchema creates the receipts table when it does not exist.
func (r *ReceiptRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, receiptSchema)
	return err
}

// Insert records a confirmed submission and returns its row id.  A second
// insert of the same confirmation returns ErrConflict.
func (r *ReceiptRepo) Insert(ctx context.Context, rc Receipt) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO submission_receipts (confirmation_id, flow_id, kind, user_id, anonymous, confirmed_at) VALUES (?,?,?,?,?,?)",
		rc.ConfirmationID, rc.FlowID, rc.Kind, rc.UserID, rc.Anonymous, rc.ConfirmedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns the user's receipts, newest first.  A non-empty kind
// filters by kind.
func (r *ReceiptRepo) ListByUser(ctx context.Context, userID, kind string, limit int) ([]Receipt, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := "SELECT id,confirmation_id,flow_id,kind,user_id,anonymous,confirmed_at FROM submission_receipts WHERE user_id=?"
	args := []any{userID}
	if kind != "" {
		q += " AND kind=?"
		args = append(args, kind)
	}
	q += " ORDER BY confirmed_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Receipt{}
	for rows.Next() {
		var rc Receipt
		if err := rows.Scan(&rc.ID, &rc.ConfirmationID, &rc.FlowID, &rc.Kind, &rc.UserID, &rc.Anonymous, &rc.ConfirmedAt); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// GetByConfirmation fetches one receipt.
func (r *ReceiptRepo) GetByConfirmation(ctx context.Context, kind, confirmationID string) (Receipt, error) {
	var rc Receipt
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,confirmation_id,flow_id,kind,user_id,anonymous,confirmed_at FROM submission_receipts WHERE kind=? AND confirmation_id=? LIMIT 1",
		kind, confirmationID).Scan(&rc.ID, &rc.ConfirmationID, &rc.FlowID, &rc.Kind, &rc.UserID, &rc.Anonymous, &rc.ConfirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Receipt{}, ErrNotFound
	}
	return rc, err
}

// isDuplicate reports a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
