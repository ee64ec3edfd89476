package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"identity-service/internal/db"
)

// pq error code for unique_violation
const uniqueViolationCode = "23505"

// PostgresDirectory is the canonical Directory backed by Postgres.
type PostgresDirectory struct {
	db *db.DB
}

func NewPostgresDirectory(db *db.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const userColumns = `
	id, email, username, password_hash, avatar_url, bio,
	locale, timezone, device_token, push_enabled, is_active,
	created_at, updated_at, last_login
`

func (d *PostgresDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return d.scanUser(ctx, row)
}

func (d *PostgresDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return d.scanUser(ctx, row)
}

func (d *PostgresDirectory) FindByProviderID(
	ctx context.Context,
	provider string,
	providerUserID string,
) (*User, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = (
			SELECT user_id
			FROM identities
			WHERE provider = $1
			  AND provider_user_id = $2
		)
	`, provider, providerUserID)
	return d.scanUser(ctx, row)
}

// Create inserts the user row and, when an external identity is supplied,
// the identity row in the same transaction. A uniqueness rejection on
// either insert rolls back the whole creation and surfaces as
// ErrUniqueViolation.
func (d *PostgresDirectory) Create(ctx context.Context, n NewUser) (*User, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: begin create: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (
			email, username, password_hash, avatar_url, device_token
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		n.Email,
		n.Username,
		n.PasswordHash,
		n.AvatarURL,
		n.DeviceToken,
	).Scan(&id)
	if err != nil {
		return nil, classify(err)
	}

	if n.Provider != "" && n.ProviderUserID != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO identities (user_id, provider, provider_user_id)
			VALUES ($1, $2, $3)
		`, id, n.Provider, n.ProviderUserID)
		if err != nil {
			return nil, classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}

	return d.FindByID(ctx, id.String())
}

func (d *PostgresDirectory) Update(ctx context.Context, id string, u Update) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.DeviceToken != nil {
		add("device_token", *u.DeviceToken)
	}
	if u.PushEnabled != nil {
		add("push_enabled", *u.PushEnabled)
	}
	if u.AvatarURL != nil {
		add("avatar_url", *u.AvatarURL)
	}
	if u.Bio != nil {
		add("bio", *u.Bio)
	}
	if u.Locale != nil {
		add("locale", *u.Locale)
	}
	if u.Timezone != nil {
		add("timezone", *u.Timezone)
	}
	if u.LastLogin != nil {
		add("last_login", *u.LastLogin)
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE users
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
	`, args...)
	if err != nil {
		return classify(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("directory: update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *PostgresDirectory) AddIdentity(
	ctx context.Context,
	userID string,
	provider string,
	providerUserID string,
) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`, userID, provider, providerUserID)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (d *PostgresDirectory) scanUser(ctx context.Context, row *sql.Row) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.Bio,
		&u.Locale,
		&u.Timezone,
		&u.DeviceToken,
		&u.PushEnabled,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLogin,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: scan user: %w", err)
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}

	u.ProviderIDs, err = d.loadIdentities(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (d *PostgresDirectory) loadIdentities(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT provider, provider_user_id
		FROM identities
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("directory: load identities: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var provider, providerUserID string
		if err := rows.Scan(&provider, &providerUserID); err != nil {
			return nil, fmt.Errorf("directory: scan identity: %w", err)
		}
		ids[provider] = providerUserID
	}
	return ids, rows.Err()
}

// classify maps driver errors to the directory taxonomy. The unique
// violation code is the signal the resolver keys its create-or-bind
// race handling on.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pqErr.Constraint)
	}
	return err
}
