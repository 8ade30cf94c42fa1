package model

import "time"

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleConsultant Role = "CONSULTANT"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleConsultant
}

// Principal is a resolved identity. Shared fields live on the struct; the
// consultant variant carries its extension in Consultant, which is nil for
// every other role.
type Principal struct {
	ID          string
	Role        Role
	DisplayName string
	Email       string
	Verified    bool
	Consultant  *ConsultantProfile
}

type ConsultantProfile struct {
	Specialization string
}

func (p *Principal) IsAdmin() bool      { return p.Role == RoleAdmin }
func (p *Principal) IsConsultant() bool { return p.Role == RoleConsultant && p.Consultant != nil }

// Credentials is the stored login material for a principal.
type Credentials struct {
	Principal
	PasswordHash string
	OTPHash      string
	OTPExpiresAt *time.Time
	OTPAttempts  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
