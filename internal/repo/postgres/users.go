package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kwameasante/lingomate/internal/domain/user"
	"github.com/kwameasante/lingomate/internal/observability"
)

const userColumns = `id, email, password_hash, first_name, last_name,
	native_language_id, target_language_id, bio, timezone, video_handles,
	email_verified, verification_token, verification_token_expiry,
	created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var handles []byte

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.NativeLanguageID,
		&u.TargetLanguageID,
		&u.Bio,
		&u.Timezone,
		&handles,
		&u.EmailVerified,
		&u.VerificationToken,
		&u.VerificationTokenExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	if len(handles) > 0 {
		if err := json.Unmarshal(handles, &u.VideoHandles); err != nil {
			return user.User{}, err
		}
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`,
			email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:                      uuid.NewString(),
		Email:                   p.Email,
		PasswordHash:            p.PasswordHash,
		FirstName:               p.FirstName,
		LastName:                p.LastName,
		NativeLanguageID:        p.NativeLanguageID,
		TargetLanguageID:        p.TargetLanguageID,
		VerificationToken:       p.VerificationToken,
		VerificationTokenExpiry: p.VerificationTokenExpiry,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, first_name, last_name,
				native_language_id, target_language_id,
				verification_token, verification_token_expiry,
				created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.NativeLanguageID, u.TargetLanguageID,
			u.VerificationToken, u.VerificationTokenExpiry,
			u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return user.User{}, translateConstraintErr(err)
	}

	return u, nil
}

// Update applies only the supplied fields and refreshes updated_at.
func (r *UsersRepo) Update(ctx context.Context, id string, p user.UpdateParams) (user.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	argsPosition := 2

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argsPosition))
		args = append(args, value)
		argsPosition++
	}

	if p.FirstName != nil {
		addSet("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		addSet("last_name", *p.LastName)
	}
	if p.Bio != nil {
		addSet("bio", *p.Bio)
	}
	if p.Timezone != nil {
		addSet("timezone", *p.Timezone)
	}
	if p.VideoHandles != nil {
		b, err := json.Marshal(*p.VideoHandles)
		if err != nil {
			return user.User{}, err
		}
		addSet("video_handles", b)
	}
	if p.NativeLanguageID != nil {
		addSet("native_language_id", *p.NativeLanguageID)
	}
	if p.TargetLanguageID != nil {
		addSet("target_language_id", *p.TargetLanguageID)
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + userColumns

	var u user.User
	var err error

	err = r.observe("users.update", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, translateConstraintErr(err)
	}

	return u, nil
}

// ListExcluding returns one page of users with id != excludedID in stable
// creation order.
func (r *UsersRepo) ListExcluding(ctx context.Context, excludedID string, offset, limit int) ([]user.User, error) {
	var rows pgx.Rows
	var err error

	err = r.observe("users.list_excluding", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE id != $1
			 ORDER BY created_at ASC, id ASC
			 LIMIT $2 OFFSET $3`,
			excludedID, limit, offset,
		)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]user.User, 0, limit)

	for rows.Next() {
		u, scanErr := scanUser(rows)

		if scanErr != nil {
			return nil, scanErr
		}

		output = append(output, u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return output, nil
}

func (r *UsersRepo) CountExcluding(ctx context.Context, excludedID string) (int, error) {
	var total int

	err := r.observe("users.count_excluding", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE id != $1`, excludedID,
		).Scan(&total)
	})

	return total, err
}

func (r *UsersRepo) GetByVerificationToken(ctx context.Context, token string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_verification_token", func() error {
		u, err = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE verification_token = $1`,
			token,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// MarkEmailVerified stamps the verification time and clears the token pair
// in one statement so a token cannot be consumed twice.
func (r *UsersRepo) MarkEmailVerified(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("users.mark_email_verified", func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users
			 SET email_verified = NOW(),
			     verification_token = NULL,
			     verification_token_expiry = NULL,
			     updated_at = NOW()
			 WHERE id = $1`,
			id,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

// translateConstraintErr maps storage constraint violations to domain errors
// so callers never see raw pg error codes.
func translateConstraintErr(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return user.ErrEmailTaken
		case "23503":
			return user.ErrLanguageNotFound
		}
	}

	return err
}
