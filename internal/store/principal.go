package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"consult-scheduler/internal/model"
)

const principalCols = `id, email, name, role, specialization, verified,
	password_hash, COALESCE(otp_hash, ''), otp_expires_at, otp_attempts, created_at, updated_at`

func (s *Store) CreatePrincipal(ctx context.Context, c *model.Credentials) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO principals (id, email, name, role, specialization, verified,
		                         password_hash, otp_hash, otp_expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, strings.ToLower(c.Email), c.DisplayName, string(c.Role), specialization(&c.Principal),
		c.Verified, c.PasswordHash, nullable(c.OTPHash), c.OTPExpiresAt,
	)
	if isUnique(err, "") {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

func (s *Store) CredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+principalCols+` FROM principals WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	c, err := scanCredentials(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credentials by email: %w", err)
	}
	return c, nil
}

// ResolvePrincipal returns the verified principal with the given id.
func (s *Store) ResolvePrincipal(ctx context.Context, id string) (*model.Principal, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx,
		`SELECT `+principalCols+` FROM principals WHERE id = $1 AND verified`, id)
	c, err := scanCredentials(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	return &c.Principal, nil
}

func (s *Store) MarkVerified(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE principals SET verified = true, otp_hash = NULL, otp_expires_at = NULL,
		        otp_attempts = 0, updated_at = NOW()
		 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordOTPFailure counts a wrong verification code and returns the new total.
func (s *Store) RecordOTPFailure(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`UPDATE principals SET otp_attempts = otp_attempts + 1, updated_at = NOW()
		 WHERE id = $1 AND NOT verified RETURNING otp_attempts`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("record otp failure: %w", err)
	}
	return n, nil
}

// DeleteUnverified removes a principal that never completed verification.
func (s *Store) DeleteUnverified(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM principals WHERE id = $1 AND NOT verified`, id)
	if err != nil {
		return fmt.Errorf("delete unverified: %w", err)
	}
	return nil
}

func (s *Store) ListConsultants(ctx context.Context) ([]model.Principal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+principalCols+` FROM principals
		 WHERE role = 'CONSULTANT' AND verified ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	defer rows.Close()

	var out []model.Principal
	for rows.Next() {
		c, err := scanCredentials(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c.Principal)
	}
	return out, rows.Err()
}

func scanCredentials(row pgx.Row) (*model.Credentials, error) {
	c := &model.Credentials{}
	var role, specialty string
	var otpExpires *time.Time
	err := row.Scan(&c.ID, &c.Email, &c.DisplayName, &role, &specialty, &c.Verified,
		&c.PasswordHash, &c.OTPHash, &otpExpires, &c.OTPAttempts, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Role = model.Role(role)
	c.OTPExpiresAt = otpExpires
	if c.Role == model.RoleConsultant {
		c.Consultant = &model.ConsultantProfile{Specialization: specialty}
	}
	return c, nil
}

func specialization(p *model.Principal) string {
	if p.Consultant == nil {
		return ""
	}
	return p.Consultant.Specialization
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
