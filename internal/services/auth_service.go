package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// Claims is the JWT payload. The role is decided once at login.
type Claims struct {
	UserID    int64       `json:"user_id"`
	Role      domain.Role `json:"role"`
	DriverID  int64       `json:"driver_id,omitempty"`
	StudentID int64       `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the per-request principal.
func (c Claims) Principal() (domain.Principal, error) {
	var p domain.Principal
	switch c.Role {
	case domain.RoleAdmin:
		p = domain.AdminPrincipal(domain.ID(c.UserID))
	case domain.RoleDriver:
		p = domain.DriverPrincipal(domain.ID(c.UserID), domain.ID(c.DriverID))
	case domain.RoleStudent:
		p = domain.StudentPrincipal(domain.ID(c.UserID), domain.ID(c.StudentID))
	}
	if !p.Valid() {
		return domain.Principal{}, domain.UnauthorizedError{Msg: "token carries no usable role"}
	}
	return p, nil
}

// AuthService registers accounts, issues tokens and runs driver/vehicle admin.
type AuthService struct {
	Store     repositories.Store
	Secret    []byte
	TTL       time.Duration
	Clock     Clock
	RequestID string
}

type RegisterStudentInput struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	FullName        string `json:"full_name"`
	Password        string `json:"password" binding:"required"`
	StudentCode     string `json:"student_id" binding:"required"`
	Phone           string `json:"phone_number"`
	GuardianName    string `json:"guardian_name"`
	GuardianContact string `json:"guardian_contact"`
}

type RegisterDriverInput struct {
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required"`
	FullName      string `json:"full_name"`
	Password      string `json:"password" binding:"required"`
	DriverCode    string `json:"driver_id" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
	Phone         string `json:"phone_number"`
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Role      domain.Role     `json:"role"`
	User      models.User     `json:"user"`
	Driver    *models.Driver  `json:"driver,omitempty"`
	Student   *models.Student `json:"student,omitempty"`
}

func (s AuthService) newUser(username, email, fullName, password string) (models.User, error) {
	u := models.User{
		Username:  strings.TrimSpace(username),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FullName:  utils.NormalizeSpace(fullName),
		CreatedAt: s.Clock.now(),
	}
	if u.Username == "" {
		return u, domain.ValidationError{Field: "username", Msg: "required"}
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return u, domain.ValidationError{Field: "email", Msg: "invalid address"}
	}
	if len(password) < minPasswordLen {
		return u, domain.ValidationError{Field: "password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return u, domain.InternalError{Msg: "hash password", Err: err}
	}
	u.PasswordHash = string(hash)
	return u, nil
}

func (s AuthService) RegisterStudent(ctx context.Context, in RegisterStudentInput) (models.Student, error) {
	u, err := s.newUser(in.Username, in.Email, in.FullName, in.Password)
	if err != nil {
		return models.Student{}, err
	}
	st := models.Student{
		Code:            strings.ToUpper(strings.TrimSpace(in.StudentCode)),
		Phone:           strings.TrimSpace(in.Phone),
		GuardianName:    utils.NormalizeSpace(in.GuardianName),
		GuardianContact: strings.TrimSpace(in.GuardianContact),
		Active:          true,
	}
	if st.Code == "" {
		return models.Student{}, domain.ValidationError{Field: "student_id", Msg: "required"}
	}

	err = s.Store.InTx(ctx, func(tx repositories.Store) error {
		if err := tx.Accounts().CreateUser(ctx, &u); err != nil {
			return err
		}
		st.UserID = u.ID
		return tx.Accounts().CreateStudent(ctx, &st)
	})
	if err != nil {
		return models.Student{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "register_student", "code="+st.Code)
	return st, nil
}

// RegisterDriver creates an unverified driver; an admin must approve it
// before trips can be assigned.
func (s AuthService) RegisterDriver(ctx context.Context, in RegisterDriverInput) (models.Driver, error) {
	u, err := s.newUser(in.Username, in.Email, in.FullName, in.Password)
	if err != nil {
		return models.Driver{}, err
	}
	d := models.Driver{
		Code:          strings.ToUpper(strings.TrimSpace(in.DriverCode)),
		LicenseNumber: strings.ToUpper(strings.TrimSpace(in.LicenseNumber)),
		Phone:         strings.TrimSpace(in.Phone),
		Active:        true,
	}
	if d.Code == "" {
		return models.Driver{}, domain.ValidationError{Field: "driver_id", Msg: "required"}
	}
	if d.LicenseNumber == "" {
		return models.Driver{}, domain.ValidationError{Field: "license_number", Msg: "required"}
	}

	err = s.Store.InTx(ctx, func(tx repositories.Store) error {
		if err := tx.Accounts().CreateUser(ctx, &u); err != nil {
			return err
		}
		d.UserID = u.ID
		return tx.Accounts().CreateDriver(ctx, &d)
	})
	if err != nil {
		return models.Driver{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "register_driver", "code="+d.Code)
	return d, nil
}

var errBadCredentials = domain.UnauthorizedError{Msg: "invalid credentials"}

// Login checks the password and signs an HS256 token whose role is taken from
// the account: staff first, then a driver profile, then a student profile.
func (s AuthService) Login(ctx context.Context, login, password string) (LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Field: "login", Msg: "username/email and password required"}
	}
	user, err := s.Store.Accounts().GetUserByLogin(ctx, login)
	if domain.IsNotFound(err) {
		return LoginResult{}, errBadCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, errBadCredentials
	}

	ident, err := s.Store.Accounts().Identity(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	claims := Claims{UserID: user.ID}
	switch {
	case user.IsStaff:
		claims.Role = domain.RoleAdmin
	case ident.Driver != nil:
		if !ident.Driver.Active {
			return LoginResult{}, domain.UnauthorizedError{Msg: "driver account is inactive"}
		}
		claims.Role = domain.RoleDriver
		claims.DriverID = ident.Driver.ID
	case ident.Student != nil:
		if !ident.Student.Active {
			return LoginResult{}, domain.UnauthorizedError{Msg: "student account is inactive"}
		}
		claims.Role = domain.RoleStudent
		claims.StudentID = ident.Student.ID
	default:
		return LoginResult{}, domain.UnauthorizedError{Msg: "account has no role"}
	}

	now := s.Clock.now()
	exp := now.Add(s.ttl())
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "sign token", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d role=%s", user.ID, claims.Role))
	return LoginResult{
		Token:     token,
		ExpiresAt: exp,
		Role:      claims.Role,
		User:      user,
		Driver:    ident.Driver,
		Student:   ident.Student,
	}, nil
}

func (s AuthService) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

// ParseToken verifies signature and expiry and returns the principal.
func (s AuthService) ParseToken(raw string) (domain.Principal, error) {
	var claims Claims
	keyFunc := func(*jwt.Token) (any, error) { return s.Secret, nil }
	_, err := jwt.ParseWithClaims(raw, &claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Clock.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.UnauthorizedError{Msg: "token expired"}
		}
		return domain.Principal{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	return claims.Principal()
}

// ApproveDriver marks a driver verified and active.
func (s AuthService) ApproveDriver(ctx context.Context, p domain.Principal, driverID int64) (models.Driver, error) {
	if err := requireAdmin(p); err != nil {
		return models.Driver{}, err
	}
	d, err := s.Store.Accounts().GetDriver(ctx, driverID)
	if err != nil {
		return models.Driver{}, err
	}
	d.Verified = true
	d.Active = true
	if err := s.Store.Accounts().UpdateDriver(ctx, d); err != nil {
		return models.Driver{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "approve_driver", "code="+d.Code)
	return d, nil
}

// AssignVehicle binds a driver to the vehicle whose location they report.
func (s AuthService) AssignVehicle(ctx context.Context, p domain.Principal, driverID, vehicleID int64) (models.Driver, error) {
	if err := requireAdmin(p); err != nil {
		return models.Driver{}, err
	}
	v, err := s.Store.Vehicles().GetByID(ctx, vehicleID)
	if err != nil {
		return models.Driver{}, err
	}
	if !v.Active {
		return models.Driver{}, domain.ValidationError{Field: "vehicle_id", Msg: "vehicle is inactive"}
	}
	d, err := s.Store.Accounts().GetDriver(ctx, driverID)
	if err != nil {
		return models.Driver{}, err
	}
	d.VehicleID = &v.ID
	if err := s.Store.Accounts().UpdateDriver(ctx, d); err != nil {
		return models.Driver{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "assign_vehicle", fmt.Sprintf("driver=%s plate=%s", d.Code, v.PlateNumber))
	return d, nil
}

func (s AuthService) CreateVehicle(ctx context.Context, p domain.Principal, v models.Vehicle) (models.Vehicle, error) {
	if err := requireAdmin(p); err != nil {
		return models.Vehicle{}, err
	}
	v.PlateNumber = strings.ToUpper(utils.NormalizeSpace(v.PlateNumber))
	v.Type = models.VehicleType(strings.ToUpper(strings.TrimSpace(string(v.Type))))
	switch {
	case v.PlateNumber == "":
		return models.Vehicle{}, domain.ValidationError{Field: "plate_number", Msg: "required"}
	case !v.Type.Valid():
		return models.Vehicle{}, domain.ValidationError{Field: "vehicle_type", Msg: "unknown vehicle type"}
	case v.Capacity < 1:
		return models.Vehicle{}, domain.ValidationError{Field: "capacity", Msg: "must be at least 1"}
	case v.Year != 0 && (v.Year < 1950 || v.Year > s.Clock.now().Year()+1):
		return models.Vehicle{}, domain.ValidationError{Field: "year", Msg: "out of range"}
	}
	if err := s.Store.Vehicles().Create(ctx, &v); err != nil {
		return models.Vehicle{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "create_vehicle", "plate="+v.PlateNumber)
	return v, nil
}

func (s AuthService) ListVehicles(ctx context.Context, p domain.Principal) ([]models.Vehicle, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.Store.Vehicles().List(ctx, false)
}

func (s AuthService) ListDrivers(ctx context.Context, p domain.Principal) ([]models.DriverAccount, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.Store.Accounts().ListDrivers(ctx)
}

func (s AuthService) ListStudents(ctx context.Context, p domain.Principal) ([]models.StudentAccount, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.Store.Accounts().ListStudents(ctx)
}
