package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "shuttle/internal/db"
	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

type PaymentRepository struct {
	DB intdb.DBTX
}

func (r PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO payments (payment_code, booking_id, amount, payment_method, payment_status,
			payment_date, transaction_reference, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		p.Code, p.BookingID, p.Amount, string(p.Method), string(p.Status),
		p.PaidAt, intdb.NullIfEmpty(p.Reference), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "payment", Msg: "payment code already used", Err: err}
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (models.Payment, error) {
	var p models.Payment
	var method, status string
	var paidAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, payment_code, booking_id, amount, payment_method, payment_status, payment_date,
			COALESCE(transaction_reference,''), created_at, updated_at
		FROM payments WHERE booking_id=? LIMIT 1`, bookingID).
		Scan(&p.ID, &p.Code, &p.BookingID, &p.Amount, &method, &status, &paidAt, &p.Reference, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.NotFoundError{Resource: "payment", Err: err}
	}
	p.Method = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	p.PaidAt = intdb.TimePtr(paidAt)
	return p, err
}

func (r PaymentRepository) SetStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE payments SET payment_status=?, updated_at=NOW() WHERE id=? AND payment_status=?`,
		string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Settle marks a pending payment completed.
func (r PaymentRepository) Settle(ctx context.Context, id int64, method models.PaymentMethod, reference string, paidAt time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE payments SET payment_status='COMPLETED', payment_method=?, transaction_reference=?,
			payment_date=?, updated_at=NOW()
		WHERE id=? AND payment_status='PENDING'`,
		string(method), intdb.NullIfEmpty(reference), paidAt, id)
	if err != nil {
		return false, fmt.Errorf("settle payment: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
