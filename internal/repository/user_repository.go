package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/pkg/database"
)

const userColumns = `id, identity_key, name, email, password_hash, role, is_active, email_verified,
		last_login_at, password_changed_at, verification_token, verification_token_expires,
		created_at, updated_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, identity_key, name, email, password_hash, role, is_active, email_verified,
			verification_token, verification_token_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.IdentityKey == "" {
		user.IdentityKey = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.IdentityKey,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.EmailVerified,
		user.VerificationToken,
		user.VerificationTokenExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	var lastLoginAt, passwordChangedAt, verificationExpires sql.NullTime
	var verificationToken sql.NullString

	err := row.Scan(
		&user.ID,
		&user.IdentityKey,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.EmailVerified,
		&lastLoginAt,
		&passwordChangedAt,
		&verificationToken,
		&verificationExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	if passwordChangedAt.Valid {
		user.PasswordChangedAt = &passwordChangedAt.Time
	}
	if verificationToken.Valid {
		user.VerificationToken = &verificationToken.String
	}
	if verificationExpires.Valid {
		user.VerificationTokenExpires = &verificationExpires.Time
	}

	return user, nil
}

// GetByEmail retrieves a user by its normalized email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	user, err := r.scanUser(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByIdentityKey retrieves a user by its public identity key.
func (r *userRepository) GetByIdentityKey(ctx context.Context, identityKey string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE identity_key = $1`, userColumns)

	user, err := r.scanUser(r.db.DB.QueryRowContext(ctx, query, identityKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with identity key %s not found: %w", identityKey, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by identity key: %w", err)
	}

	return user, nil
}

// GetByVerificationToken retrieves a user by exact activation token match.
func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE verification_token = $1`, userColumns)

	user, err := r.scanUser(r.db.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with verification token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by verification token: %w", err)
	}

	return user, nil
}

// Update updates mutable profile fields of a user.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, role = $4, is_active = $5, email_verified = $6, updated_at = NOW()
		WHERE identity_key = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query,
		user.IdentityKey,
		user.Name,
		user.Email,
		user.Role,
		user.IsActive,
		user.EmailVerified,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
			}
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return r.expectOneRow(result, user.IdentityKey)
}

// UpdatePassword replaces the password hash and stamps password_changed_at,
// which the auth gate compares against token issue times.
func (r *userRepository) UpdatePassword(ctx context.Context, identityKey, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = NOW(), updated_at = NOW()
		WHERE identity_key = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(ctx context.Context, identityKey string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE identity_key = $1`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// SetVerification stores a fresh activation token and its unix expiry.
func (r *userRepository) SetVerification(ctx context.Context, identityKey, token string, expires int64) error {
	query := `
		UPDATE users
		SET verification_token = $2, verification_token_expires = to_timestamp($3), updated_at = NOW()
		WHERE identity_key = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey, token, expires)
	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// Activate marks the account active and verified and clears the activation
// sub-state.
func (r *userRepository) Activate(ctx context.Context, identityKey string) error {
	query := `
		UPDATE users
		SET is_active = TRUE, email_verified = TRUE,
			verification_token = NULL, verification_token_expires = NULL, updated_at = NOW()
		WHERE identity_key = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey)
	if err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// SetActive toggles the active flag.
func (r *userRepository) SetActive(ctx context.Context, identityKey string, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE identity_key = $1`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey, active)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// UpdateRole changes the account role.
func (r *userRepository) UpdateRole(ctx context.Context, identityKey string, role domain.Role) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE identity_key = $1`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// Delete removes a user row.
func (r *userRepository) Delete(ctx context.Context, identityKey string) error {
	query := `DELETE FROM users WHERE identity_key = $1`

	result, err := r.db.DB.ExecContext(ctx, query, identityKey)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return r.expectOneRow(result, identityKey)
}

// List returns a page of users matching the filter plus the total count.
func (r *userRepository) List(ctx context.Context, filter UserFilter, offset, limit int) ([]*domain.User, int, error) {
	where := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users WHERE %s`, whereClause)
	if err := r.db.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.DB.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, total, nil
}

// Stats aggregates account counts, overall and per role.
func (r *userRepository) Stats(ctx context.Context) (*UserStats, error) {
	stats := &UserStats{ByRole: map[string]int{}}

	query := `
		SELECT role, is_active, COUNT(*)
		FROM users
		GROUP BY role, is_active
	`

	rows, err := r.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var active bool
		var count int
		if err := rows.Scan(&role, &active, &count); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		stats.Total += count
		if active {
			stats.Active += count
		} else {
			stats.Inactive += count
		}
		stats.ByRole[role] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user stats: %w", err)
	}

	return stats, nil
}

func (r *userRepository) expectOneRow(result sql.Result, identityKey string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with identity key %s not found: %w", identityKey, ErrNotFound)
	}

	return nil
}
