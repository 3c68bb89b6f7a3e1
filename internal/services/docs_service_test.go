package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

func TestDocsServiceGenerate(t *testing.T) {
	paid := time.Date(2025, 1, 3, 8, 0, 0, 0, time.Local)
	loader := func(_ context.Context, _ domain.Principal, code string) (ticketDocData, error) {
		return ticketDocData{
			BookingCode:   code,
			StudentCode:   "2021-0001",
			RouteCode:     "R-NORTH",
			RouteName:     "North Loop",
			Origin:        "Main Campus",
			Destination:   "North Terminal",
			Date:          monday,
			Day:           models.Monday,
			Departure:     "07:00",
			Pickup:        "Main Gate",
			Dropoff:       "Library",
			Seats:         2,
			Fare:          5000,
			TotalFare:     10000,
			Status:        models.BookingConfirmed,
			PaymentCode:   "PY20250102ABCDEF",
			PaymentMethod: models.PaymentGCash,
			PaymentStatus: models.PaymentCompleted,
			PaidAt:        &paid,
		}, nil
	}

	svc := DocsService{Loader: loader}

	pdf, filename, err := svc.BookingTicket(context.Background(), domain.AdminPrincipal(1), "BK20250102A1B2C3")
	if err != nil {
		t.Fatalf("BookingTicket returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("BookingTicket did not return a PDF")
	}
	if filename != "e-ticket-BK20250102A1B2C3.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}

	receipt, name, err := svc.PaymentReceipt(context.Background(), domain.AdminPrincipal(1), "BK20250102A1B2C3")
	if err != nil {
		t.Fatalf("PaymentReceipt returned error: %v", err)
	}
	if len(receipt) == 0 || name != "receipt-BK20250102A1B2C3.pdf" {
		t.Fatalf("PaymentReceipt returned %d bytes named %q", len(receipt), name)
	}
}

func TestDocsServiceRefusals(t *testing.T) {
	f := newFixture(t)
	svc := DocsService{Store: f.store, Clock: f.clock()}
	ctx := context.Background()

	b := f.seedBooking(nil, models.BookingPending)
	f.store.addPayment(models.Payment{BookingID: b.ID, Code: "PY1", Amount: b.TotalFare, Method: models.PaymentCash, Status: models.PaymentPending})

	if _, _, err := svc.BookingTicket(ctx, f.asStudent(), b.Code); err != nil {
		t.Fatalf("ticket for pending booking: %v", err)
	}
	if _, _, err := svc.PaymentReceipt(ctx, f.asStudent(), b.Code); !domain.IsInvalidTransition(err) {
		t.Fatalf("receipt for unpaid booking: expected invalid transition, got %v", err)
	}
	if _, _, err := svc.BookingTicket(ctx, domain.StudentPrincipal(9, 99), b.Code); !domain.IsUnauthorized(err) {
		t.Fatalf("ticket for another student: expected unauthorized, got %v", err)
	}

	cancelled := f.seedBooking(nil, models.BookingCancelled)
	if _, _, err := svc.BookingTicket(ctx, f.admin(), cancelled.Code); !domain.IsInvalidTransition(err) {
		t.Fatalf("ticket for cancelled booking: expected invalid transition, got %v", err)
	}
}

func TestSafeFilenamePart(t *testing.T) {
	cases := map[string]string{
		"":             "NA",
		" BK 1/2 ":     "BK_1_2",
		"a:b*c?d|e":    "a_b_c_d_e",
		"BK2025010201": "BK2025010201",
	}
	for in, want := range cases {
		if got := safeFilenamePart(in); got != want {
			t.Fatalf("safeFilenamePart(%q) = %q, want %q", in, got, want)
		}
	}
}
