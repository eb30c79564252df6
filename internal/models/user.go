package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the account type of a user.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleEnterprise Role = "ENTERPRISE"
	RoleCandidate  Role = "CANDIDATE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEnterprise, RoleCandidate:
		return true
	}
	return false
}

// VerificationStatus tracks account approval.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// Experience is one entry of a candidate's work history.
type Experience struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

// Profile holds candidate-facing profile data.
type Profile struct {
	Resume       string       `json:"resume"`
	Skills       []string     `json:"skills"`
	Phone        string       `json:"phone"`
	Languages    []string     `json:"languages"`
	Availability string       `json:"availability"`
	Experience   []Experience `json:"experience"`
}

// Enterprise holds employer details for ENTERPRISE accounts.
type Enterprise struct {
	Name          string `json:"name,omitempty"`
	Industry      string `json:"industry,omitempty"`
	Location      string `json:"location,omitempty"`
	Website       string `json:"website,omitempty"`
	Description   string `json:"description,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
}

// User represents a platform account.
type User struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Role               Role               `json:"role"`
	PasswordHash       string             `json:"-"`
	GoogleID           string             `json:"-"`
	IsActive           bool               `json:"is_active"`
	EmailVerified      bool               `json:"email_verified"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	VerificationCode   string             `json:"-"`
	ResetToken         string             `json:"-"`
	ResetExpiresAt     *time.Time         `json:"-"`
	Picture            string             `json:"picture"`
	Profile            Profile            `json:"profile"`
	Enterprise         *Enterprise        `json:"enterprise,omitempty"`
	LastLogin          *time.Time         `json:"last_login,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// DisplayName returns the enterprise name for employers and the user name otherwise.
func (u *User) DisplayName() string {
	if u.Enterprise != nil && u.Enterprise.Name != "" {
		return u.Enterprise.Name
	}
	return u.Name
}
