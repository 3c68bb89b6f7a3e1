package domain

// ID is used across domain entities.
type ID int64

// Role classifies an authenticated principal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDriver  Role = "driver"
	RoleStudent Role = "student"
)

// Principal is the caller of a core operation, resolved once per request.
// Exactly one of the role variants is populated; build it with AdminPrincipal,
// DriverPrincipal or StudentPrincipal.
type Principal struct {
	UserID    ID
	Role      Role
	DriverID  ID
	StudentID ID
}

func AdminPrincipal(userID ID) Principal {
	return Principal{UserID: userID, Role: RoleAdmin}
}

func DriverPrincipal(userID, driverID ID) Principal {
	return Principal{UserID: userID, Role: RoleDriver, DriverID: driverID}
}

func StudentPrincipal(userID, studentID ID) Principal {
	return Principal{UserID: userID, Role: RoleStudent, StudentID: studentID}
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Driver returns the driver id when the principal is a driver.
func (p Principal) Driver() (ID, bool) {
	if p.Role != RoleDriver || p.DriverID <= 0 {
		return 0, false
	}
	return p.DriverID, true
}

// Student returns the student id when the principal is a student.
func (p Principal) Student() (ID, bool) {
	if p.Role != RoleStudent || p.StudentID <= 0 {
		return 0, false
	}
	return p.StudentID, true
}

// Valid reports whether the principal carries one well-formed role.
func (p Principal) Valid() bool {
	switch p.Role {
	case RoleAdmin:
		return p.UserID > 0
	case RoleDriver:
		return p.DriverID > 0
	case RoleStudent:
		return p.StudentID > 0
	default:
		return false
	}
}
