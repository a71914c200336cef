package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/secretshare/internal/data/cryptoutil"
	"github.com/target/secretshare/internal/data/pgxutil"
	domainauth "github.com/target/secretshare/internal/domain/auth"
	apperrors "github.com/target/secretshare/internal/errors"
	"github.com/target/secretshare/internal/ports"
)

// ErrUserNotFound is the cause of a RegistryError when updating a missing user.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `email, password, secret, created_at, updated_at`

// userRow mirrors the users table. A NULL password means no local credential.
type userRow struct {
	Email     string    `db:"email"`
	Password  *string   `db:"password"`
	Secret    *string   `db:"secret"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UserRepo is the Postgres-backed identity registry. Secrets are encrypted at rest
// with the owner's email as associated data.
type UserRepo struct {
	DB  *sql.DB
	Enc cryptoutil.Encryptor
}

var _ ports.IdentityRegistry = (*UserRepo)(nil)

// NewUserRepo creates a new UserRepo. A nil encryptor stores secrets with cryptoutil.NoopEncryptor.
func NewUserRepo(db *sql.DB, enc cryptoutil.Encryptor) *UserRepo {
	if enc == nil {
		enc = cryptoutil.NoopEncryptor{}
	}
	return &UserRepo{DB: db, Enc: enc}
}

// FindByEmail returns (nil, nil) when no user has this email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domainauth.Identity, error) {
	row, err := pgxutil.QueryOne[userRow](ctx, r.DB,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domainauth.RegistryError{Op: "find", Err: apperrors.MapDBError(err)}
	}
	return r.toIdentity(row)
}

// Create inserts a user. The primary key is the only duplicate detector:
// a unique violation is reported as domainauth.ErrEmailTaken.
func (r *UserRepo) Create(
	ctx context.Context,
	email string,
	cred domainauth.Credential,
) (*domainauth.Identity, error) {
	var password *string
	if cred.IsLocal() {
		h := string(cred.Hash())
		password = &h
	}

	row, err := pgxutil.QueryOne[userRow](ctx, r.DB,
		`INSERT INTO users (email, password) VALUES ($1, $2) RETURNING `+userColumns, email, password)
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsConflict(mapped) {
			return nil, domainauth.ErrEmailTaken
		}
		return nil, &domainauth.RegistryError{Op: "create", Err: mapped}
	}
	return r.toIdentity(row)
}

// SetSecret replaces the user's secret.
func (r *UserRepo) SetSecret(ctx context.Context, email, secret string) error {
	cipher, err := r.Enc.Encrypt([]byte(secret), []byte(email))
	if err != nil {
		return &domainauth.RegistryError{Op: "set secret", Err: fmt.Errorf("encrypt: %w", err)}
	}
	n, err := pgxutil.Exec(ctx, r.DB,
		`UPDATE users SET secret = $2, updated_at = now() WHERE email = $1`, email, cipher)
	if err != nil {
		return &domainauth.RegistryError{Op: "set secret", Err: apperrors.MapDBError(err)}
	}
	if n == 0 {
		return &domainauth.RegistryError{Op: "set secret", Err: ErrUserNotFound}
	}
	return nil
}

func (r *UserRepo) toIdentity(row userRow) (*domainauth.Identity, error) {
	ident := &domainauth.Identity{
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
	if row.Password != nil {
		ident.Credential = domainauth.HashedCredential([]byte(*row.Password))
	}
	if row.Secret != nil && *row.Secret != "" {
		pt, err := r.Enc.Decrypt(*row.Secret, []byte(row.Email))
		if err != nil {
			return nil, &domainauth.RegistryError{Op: "decrypt secret", Err: err}
		}
		s := string(pt)
		ident.Secret = &s
	}
	return ident, nil
}
