package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "shuttle/internal/db"
	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

// AccountRepository stores users and their driver or student profiles.
type AccountRepository struct {
	DB intdb.DBTX
}

func (r AccountRepository) CreateUser(ctx context.Context, u *models.User) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (username, email, full_name, password_hash, is_staff, created_at)
		VALUES (?,?,?,?,?,?)`,
		u.Username, u.Email, u.FullName, u.PasswordHash, u.IsStaff, u.CreatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "user", Msg: "username or email already registered", Err: err}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUserByLogin matches either username or email.
func (r AccountRepository) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, password_hash, is_staff, created_at
		FROM users WHERE username=? OR email=? LIMIT 1`, login, login).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "user", Err: err}
	}
	return u, err
}

func (r AccountRepository) Identity(ctx context.Context, userID int64) (models.Identity, error) {
	var id models.Identity
	u := &id.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, password_hash, is_staff, created_at
		FROM users WHERE id=? LIMIT 1`, userID).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return id, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return id, err
	}

	d, err := scanDriver(r.DB.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE user_id=? LIMIT 1`, userID))
	switch {
	case err == nil:
		id.Driver = &d
	case !errors.Is(err, sql.ErrNoRows):
		return id, err
	}

	s, err := scanStudent(r.DB.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE user_id=? LIMIT 1`, userID))
	switch {
	case err == nil:
		id.Student = &s
	case !errors.Is(err, sql.ErrNoRows):
		return id, err
	}
	return id, nil
}

const studentColumns = `id, user_id, student_code, COALESCE(phone_number,''), COALESCE(guardian_name,''),
	COALESCE(guardian_contact,''), is_active`

func scanStudent(row interface{ Scan(...any) error }) (models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.UserID, &s.Code, &s.Phone, &s.GuardianName, &s.GuardianContact, &s.Active)
	return s, err
}

func (r AccountRepository) CreateStudent(ctx context.Context, s *models.Student) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO students (user_id, student_code, phone_number, guardian_name, guardian_contact, is_active)
		VALUES (?,?,?,?,?,?)`,
		s.UserID, s.Code, intdb.NullIfEmpty(s.Phone), intdb.NullIfEmpty(s.GuardianName),
		intdb.NullIfEmpty(s.GuardianContact), s.Active)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "student", Msg: "student id already registered", Err: err}
		}
		return fmt.Errorf("insert student: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (r AccountRepository) GetStudent(ctx context.Context, id int64) (models.Student, error) {
	s, err := scanStudent(r.DB.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFoundError{Resource: "student", Err: err}
	}
	return s, err
}

const driverColumns = `id, user_id, driver_code, license_number, COALESCE(phone_number,''), vehicle_id,
	is_active, is_verified`

func scanDriver(row interface{ Scan(...any) error }) (models.Driver, error) {
	var d models.Driver
	var vehicleID sql.NullInt64
	err := row.Scan(&d.ID, &d.UserID, &d.Code, &d.LicenseNumber, &d.Phone, &vehicleID, &d.Active, &d.Verified)
	d.VehicleID = intdb.Int64Ptr(vehicleID)
	return d, err
}

func (r AccountRepository) CreateDriver(ctx context.Context, d *models.Driver) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO drivers (user_id, driver_code, license_number, phone_number, vehicle_id, is_active, is_verified)
		VALUES (?,?,?,?,?,?,?)`,
		d.UserID, d.Code, d.LicenseNumber, intdb.NullIfEmpty(d.Phone), intdb.NullInt64(d.VehicleID), d.Active, d.Verified)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "driver", Msg: "driver id or license already registered", Err: err}
		}
		return fmt.Errorf("insert driver: %w", err)
	}
	d.ID, err = res.LastInsertId()
	return err
}

func (r AccountRepository) GetDriver(ctx context.Context, id int64) (models.Driver, error) {
	d, err := scanDriver(r.DB.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return d, domain.NotFoundError{Resource: "driver", Err: err}
	}
	return d, err
}

// UpdateDriver writes the mutable admin-controlled fields.
func (r AccountRepository) UpdateDriver(ctx context.Context, d models.Driver) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE drivers SET vehicle_id=?, is_active=?, is_verified=? WHERE id=?`,
		intdb.NullInt64(d.VehicleID), d.Active, d.Verified, d.ID)
	if err != nil {
		return fmt.Errorf("update driver: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when nothing changed, so confirm the row exists.
		if _, err := r.GetDriver(ctx, d.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListDrivers returns every driver with its user account, newest first.
func (r AccountRepository) ListDrivers(ctx context.Context) ([]models.DriverAccount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.id, d.user_id, d.driver_code, d.license_number, COALESCE(d.phone_number,''), d.vehicle_id,
			d.is_active, d.is_verified, u.username, u.full_name, u.email
		FROM drivers d JOIN users u ON u.id = d.user_id
		ORDER BY d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	out := []models.DriverAccount{}
	for rows.Next() {
		var a models.DriverAccount
		var vehicleID sql.NullInt64
		d := &a.Driver
		if err := rows.Scan(&d.ID, &d.UserID, &d.Code, &d.LicenseNumber, &d.Phone, &vehicleID,
			&d.Active, &d.Verified, &a.Username, &a.FullName, &a.Email); err != nil {
			return nil, err
		}
		d.VehicleID = intdb.Int64Ptr(vehicleID)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListStudents returns every student with its user account, newest first.
func (r AccountRepository) ListStudents(ctx context.Context) ([]models.StudentAccount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.student_code, COALESCE(s.phone_number,''), COALESCE(s.guardian_name,''),
			COALESCE(s.guardian_contact,''), s.is_active, u.username, u.full_name, u.email
		FROM students s JOIN users u ON u.id = s.user_id
		ORDER BY s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	out := []models.StudentAccount{}
	for rows.Next() {
		var a models.StudentAccount
		s := &a.Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.Code, &s.Phone, &s.GuardianName, &s.GuardianContact,
			&s.Active, &a.Username, &a.FullName, &a.Email); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
