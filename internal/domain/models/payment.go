package models

import "time"

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentGCash        PaymentMethod = "GCASH"
	PaymentCard         PaymentMethod = "CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentGCash, PaymentCard, PaymentBankTransfer:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment is the settlement companion of a booking. Amount is fixed when the
// booking is created.
type Payment struct {
	ID        int64         `json:"id"`
	Code      string        `json:"payment_id"`
	BookingID int64         `json:"booking_id"`
	Amount    int64         `json:"amount"`
	Method    PaymentMethod `json:"payment_method"`
	Status    PaymentStatus `json:"payment_status"`
	PaidAt    *time.Time    `json:"payment_date,omitempty"`
	Reference string        `json:"transaction_reference,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
