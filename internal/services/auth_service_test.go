package services

import (
	"context"
	"testing"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(f *fixture) AuthService {
	return AuthService{Store: f.store, Secret: []byte("test-secret"), TTL: time.Hour, Clock: f.clock()}
}

func TestRegisterStudentAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	st, err := svc.RegisterStudent(ctx, RegisterStudentInput{
		Username: "juan", Email: " Juan@Example.edu ", FullName: "Juan  dela Cruz",
		Password: "s3cretpass", StudentCode: "2022-0042",
	})
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.NotZero(t, st.UserID)
	assert.Equal(t, "juan@example.edu", f.store.data.users[st.UserID].Email)

	res, err := svc.Login(ctx, "juan@example.edu", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, res.Role)
	assert.Equal(t, f.now.Add(time.Hour), res.ExpiresAt)
	require.NotNil(t, res.Student)

	p, err := svc.ParseToken(res.Token)
	require.NoError(t, err)
	sid, ok := p.Student()
	require.True(t, ok)
	assert.Equal(t, st.ID, int64(sid))

	_, err = svc.Login(ctx, "juan", "wrong-password")
	assert.True(t, domain.IsUnauthorized(err))
	_, err = svc.Login(ctx, "nobody", "s3cretpass")
	assert.True(t, domain.IsUnauthorized(err))
}

func TestRegisterRejects(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	_, err := svc.RegisterStudent(ctx, RegisterStudentInput{Username: "a", Email: "not-an-email", Password: "longenough", StudentCode: "X"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.RegisterStudent(ctx, RegisterStudentInput{Username: "a", Email: "a@b.c", Password: "short", StudentCode: "X"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.RegisterDriver(ctx, RegisterDriverInput{Username: "d", Email: "d@b.c", Password: "longenough", DriverCode: "D1"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.RegisterStudent(ctx, RegisterStudentInput{Username: "a", Email: "a@b.c", Password: "longenough", StudentCode: "2021-0001"})
	assert.True(t, domain.IsConflict(err))
	assert.Empty(t, f.store.data.users, "user insert must roll back with the profile")
}

func TestDriverLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	d, err := svc.RegisterDriver(ctx, RegisterDriverInput{
		Username: "pedro", Email: "pedro@example.com", Password: "drive-safe",
		DriverCode: "drv-77", LicenseNumber: "n02-11-000111",
	})
	require.NoError(t, err)
	assert.Equal(t, "DRV-77", d.Code)
	assert.False(t, d.Verified)

	res, err := svc.Login(ctx, "pedro", "drive-safe")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDriver, res.Role)

	_, err = svc.ApproveDriver(ctx, f.asStudent(), d.ID)
	assert.True(t, domain.IsUnauthorized(err))
	approved, err := svc.ApproveDriver(ctx, f.admin(), d.ID)
	require.NoError(t, err)
	assert.True(t, approved.Verified)

	withVan, err := svc.AssignVehicle(ctx, f.admin(), d.ID, f.vehicle.ID)
	require.NoError(t, err)
	require.NotNil(t, withVan.VehicleID)
	assert.Equal(t, f.vehicle.ID, *withVan.VehicleID)

	parked := f.store.addVehicle(models.Vehicle{PlateNumber: "OLD 0001", Type: models.VehicleJeepney, Capacity: 16})
	_, err = svc.AssignVehicle(ctx, f.admin(), d.ID, parked.ID)
	assert.True(t, domain.IsValidation(err))
}

func TestLoginPrefersStaffRole(t *testing.T) {
	f := newFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	f.store.data.users[f.student.UserID] = models.User{ID: f.student.UserID, Username: "dispatch", Email: "ops@example.com", PasswordHash: string(hash), IsStaff: true}

	res, err := newAuthService(f).Login(context.Background(), "dispatch", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.Role)
}

func TestParseTokenRejects(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	f.store.data.users[500] = models.User{ID: 500, Username: "ops", Email: "ops@example.com", PasswordHash: string(hash), IsStaff: true}

	res, err := svc.Login(context.Background(), "ops", "admin-pass")
	require.NoError(t, err)

	other := svc
	other.Secret = []byte("another-secret")
	_, err = other.ParseToken(res.Token)
	assert.True(t, domain.IsUnauthorized(err))

	f.now = f.now.Add(2 * time.Hour)
	_, err = svc.ParseToken(res.Token)
	require.True(t, domain.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "expired")

	_, err = svc.ParseToken("not.a.token")
	assert.True(t, domain.IsUnauthorized(err))
}

func TestClaimsPrincipalNeedsRole(t *testing.T) {
	_, err := Claims{UserID: 3, Role: domain.RoleDriver}.Principal()
	assert.True(t, domain.IsUnauthorized(err))

	p, err := Claims{UserID: 3, Role: domain.RoleDriver, DriverID: 8}.Principal()
	require.NoError(t, err)
	id, ok := p.Driver()
	assert.True(t, ok)
	assert.Equal(t, domain.ID(8), id)
}

func TestCreateVehicle(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	v, err := svc.CreateVehicle(ctx, f.admin(), models.Vehicle{PlateNumber: "abc  123", Type: "bus", Capacity: 30, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "ABC 123", v.PlateNumber)
	assert.Equal(t, models.VehicleBus, v.Type)

	_, err = svc.CreateVehicle(ctx, f.admin(), models.Vehicle{PlateNumber: "X 1", Type: models.VehicleVan})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.CreateVehicle(ctx, f.admin(), models.Vehicle{PlateNumber: "ABC 123", Type: models.VehicleVan, Capacity: 10})
	assert.True(t, domain.IsConflict(err))

	list, err := svc.ListVehicles(ctx, f.admin())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAdminAccountListings(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	d, err := svc.RegisterDriver(ctx, RegisterDriverInput{
		Username: "pedro", Email: "pedro@example.com", Password: "drive-safe", FullName: "Pedro Reyes",
		DriverCode: "drv-77", LicenseNumber: "n02-11-000111",
	})
	require.NoError(t, err)

	drivers, err := svc.ListDrivers(ctx, f.admin())
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, d.ID, drivers[0].ID, "newest first")
	assert.Equal(t, "pedro@example.com", drivers[0].Email)
	assert.Equal(t, "Pedro Reyes", drivers[0].FullName)
	assert.False(t, drivers[0].Verified, "unapproved drivers are listed too")

	students, err := svc.ListStudents(ctx, f.admin())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, f.student.Code, students[0].Code)

	_, err = svc.ListDrivers(ctx, f.asDriver())
	assert.True(t, domain.IsUnauthorized(err))
	_, err = svc.ListStudents(ctx, f.asStudent())
	assert.True(t, domain.IsUnauthorized(err))
}
