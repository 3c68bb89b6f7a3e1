package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intdb "shuttle/internal/db"
)

// SQLStore is the MySQL-backed Store.
type SQLStore struct {
	db *sql.DB
	q  intdb.DBTX
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

func (s *SQLStore) Routes() RouteRepo       { return RouteRepository{DB: s.q} }
func (s *SQLStore) Accounts() AccountRepo   { return AccountRepository{DB: s.q} }
func (s *SQLStore) Vehicles() VehicleRepo   { return VehicleRepository{DB: s.q} }
func (s *SQLStore) Bookings() BookingRepo   { return BookingRepository{DB: s.q} }
func (s *SQLStore) Payments() PaymentRepo   { return PaymentRepository{DB: s.q} }
func (s *SQLStore) Trips() TripRepo         { return TripRepository{DB: s.q} }
func (s *SQLStore) Locations() LocationRepo { return LocationRepository{DB: s.q} }
func (s *SQLStore) Reports() ReportRepo     { return ReportRepository{DB: s.q} }

// InTx starts a transaction unless the store is already bound to one, in
// which case fn joins it.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
