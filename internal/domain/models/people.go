package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

type Driver struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Code          string `json:"driver_id"`
	LicenseNumber string `json:"license_number"`
	Phone         string `json:"phone_number"`
	VehicleID     *int64 `json:"vehicle_id,omitempty"`
	Active        bool   `json:"is_active"`
	Verified      bool   `json:"is_verified"`
}

type Student struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	Code            string `json:"student_id"`
	Phone           string `json:"phone_number"`
	GuardianName    string `json:"guardian_name,omitempty"`
	GuardianContact string `json:"guardian_contact,omitempty"`
	Active          bool   `json:"is_active"`
}

// Identity is a user with whichever profile is linked to it.
type Identity struct {
	User    User
	Driver  *Driver
	Student *Student
}

// DriverAccount is a driver profile with its login details, as listed to admins.
type DriverAccount struct {
	Driver
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type StudentAccount struct {
	Student
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
