package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders booking e-tickets and payment receipts as PDF.
type DocsService struct {
	Store     repositories.Store
	Clock     Clock
	RequestID string
	Loader    func(ctx context.Context, p domain.Principal, code string) (ticketDocData, error)
}

type ticketDocData struct {
	BookingCode   string
	StudentCode   string
	RouteCode     string
	RouteName     string
	Origin        string
	Destination   string
	Date          time.Time
	Day           models.DayOfWeek
	Departure     string
	Pickup        string
	Dropoff       string
	Seats         int
	Fare          int64
	TotalFare     int64
	Status        models.BookingStatus
	PaymentCode   string
	PaymentMethod models.PaymentMethod
	PaymentStatus models.PaymentStatus
	PaidAt        *time.Time
	Reference     string
}

func (s DocsService) BookingTicket(ctx context.Context, p domain.Principal, code string) ([]byte, string, error) {
	data, err := s.load(ctx, p, code)
	if err != nil {
		return nil, "", err
	}
	if data.Status == models.BookingCancelled {
		return nil, "", domain.InvalidTransitionError{Entity: "booking", From: string(data.Status), Action: "issue e-ticket for"}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", "code="+data.BookingCode)
	return buildETicketPDF(data)
}

// PaymentReceipt is only issued for settled payments.
func (s DocsService) PaymentReceipt(ctx context.Context, p domain.Principal, code string) ([]byte, string, error) {
	data, err := s.load(ctx, p, code)
	if err != nil {
		return nil, "", err
	}
	if data.PaymentStatus != models.PaymentCompleted && data.PaymentStatus != models.PaymentRefunded {
		return nil, "", domain.InvalidTransitionError{Entity: "payment", From: string(data.PaymentStatus), Action: "issue receipt for"}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", "code="+data.BookingCode)
	return buildReceiptPDF(data, s.Clock.now())
}

func (s DocsService) load(ctx context.Context, p domain.Principal, code string) (ticketDocData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, p, code)
	}
	var out ticketDocData
	b, err := s.Store.Bookings().GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return out, err
	}
	if err := bookingVisible(ctx, s.Store, p, b); err != nil {
		return out, err
	}
	routes := s.Store.Routes()
	route, err := routes.GetByID(ctx, b.RouteID)
	if err != nil {
		return out, err
	}
	sched, err := routes.GetSchedule(ctx, b.ScheduleID)
	if err != nil {
		return out, err
	}
	pickup, err := routes.GetStop(ctx, b.PickupStopID)
	if err != nil {
		return out, err
	}
	dropoff, err := routes.GetStop(ctx, b.DropoffStopID)
	if err != nil {
		return out, err
	}

	out = ticketDocData{
		BookingCode: b.Code,
		RouteCode:   route.Code,
		RouteName:   route.Name,
		Origin:      route.Origin,
		Destination: route.Destination,
		Date:        b.Date,
		Day:         sched.Day,
		Departure:   sched.DepartureTime,
		Pickup:      pickup.Name,
		Dropoff:     dropoff.Name,
		Seats:       b.Seats,
		Fare:        route.Fare,
		TotalFare:   b.TotalFare,
		Status:      b.Status,
	}
	if st, err := s.Store.Accounts().GetStudent(ctx, b.StudentID); err == nil {
		out.StudentCode = st.Code
	}
	pay, err := s.Store.Payments().GetByBookingID(ctx, b.ID)
	switch {
	case err == nil:
		out.PaymentCode = pay.Code
		out.PaymentMethod = pay.Method
		out.PaymentStatus = pay.Status
		out.PaidAt = pay.PaidAt
		out.Reference = pay.Reference
	case !domain.IsNotFound(err):
		return out, err
	}
	return out, nil
}

func buildETicketPDF(d ticketDocData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SHUTTLE E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking ID     : %s", d.BookingCode),
		fmt.Sprintf("Student ID     : %s", safe(d.StudentCode, "-")),
		fmt.Sprintf("Route          : %s %s", d.RouteCode, safe(d.RouteName, "")),
		fmt.Sprintf("From / To      : %s -> %s", safe(d.Origin, "-"), safe(d.Destination, "-")),
		fmt.Sprintf("Date / Time    : %s (%s) %s", utils.FormatDate(d.Date), d.Day, safe(d.Departure, "-")),
		fmt.Sprintf("Pickup         : %s", safe(d.Pickup, "-")),
		fmt.Sprintf("Dropoff        : %s", safe(d.Dropoff, "-")),
		fmt.Sprintf("Seats          : %d", d.Seats),
		fmt.Sprintf("Total Fare     : PHP %s", utils.FormatAmount(d.TotalFare)),
		fmt.Sprintf("Booking Status : %s", d.Status),
		fmt.Sprintf("Payment        : %s (%s)", safe(string(d.PaymentStatus), "-"), safe(string(d.PaymentMethod), "-")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this e-ticket to the driver when boarding. Valid only for the date and departure shown.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("e-ticket-%s.pdf", safeFilenamePart(d.BookingCode)), nil
}

func buildReceiptPDF(d ticketDocData, issuedAt time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "OFFICIAL RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Receipt No  : "+safe(d.PaymentCode, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued      : "+issuedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	if d.PaidAt != nil {
		pdf.Cell(0, 7, "Paid        : "+d.PaidAt.Format("2006-01-02 15:04"))
		pdf.Ln(7)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Method      : %s %s", d.PaymentMethod, safe(d.Reference, "")))
	pdf.Ln(10)

	desc := fmt.Sprintf("Shuttle %s %s -> %s (%s %s), pickup %s, dropoff %s",
		d.RouteCode, safe(d.Origin, "-"), safe(d.Destination, "-"),
		utils.FormatDate(d.Date), safe(d.Departure, "-"),
		safe(d.Pickup, "-"), safe(d.Dropoff, "-"),
	)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, "1) "+desc, "", "", false)
	pdf.Ln(2)
	pdf.Cell(0, 6, fmt.Sprintf("Fare per seat: PHP %s x %d", utils.FormatAmount(d.Fare), d.Seats))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: PHP "+utils.FormatAmount(d.TotalFare))
	pdf.Ln(12)

	if d.PaymentStatus == models.PaymentRefunded {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "This payment was flagged REFUNDED after the booking was cancelled.", "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("receipt-%s.pdf", safeFilenamePart(d.BookingCode)), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
