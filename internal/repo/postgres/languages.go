package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kwameasante/lingomate/internal/domain/language"
	"github.com/kwameasante/lingomate/internal/observability"
)

type LanguagesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewLanguagesRepo(pool *pgxpool.Pool, prom *observability.Prom) *LanguagesRepo {
	return &LanguagesRepo{pool: pool, prom: prom}
}

func (r *LanguagesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *LanguagesRepo) GetByCode(ctx context.Context, code string) (language.Language, error) {
	var l language.Language

	err := r.observe("languages.get_by_code", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, code, name, native_name FROM languages WHERE code = $1`,
			code,
		).Scan(&l.ID, &l.Code, &l.Name, &l.NativeName)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return language.Language{}, language.ErrNotFound
		}

		return language.Language{}, err
	}
	return l, nil
}

func (r *LanguagesRepo) GetByID(ctx context.Context, id string) (language.Language, error) {
	var l language.Language

	err := r.observe("languages.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, code, name, native_name FROM languages WHERE id = $1`,
			id,
		).Scan(&l.ID, &l.Code, &l.Name, &l.NativeName)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return language.Language{}, language.ErrNotFound
		}

		return language.Language{}, err
	}
	return l, nil
}

func (r *LanguagesRepo) List(ctx context.Context) ([]language.Language, error) {
	var rows pgx.Rows
	var err error

	err = r.observe("languages.list", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, code, name, native_name FROM languages ORDER BY code ASC`,
		)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]language.Language, 0)

	for rows.Next() {
		var l language.Language

		err = rows.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName)

		if err != nil {
			return nil, err
		}

		output = append(output, l)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return output, nil
}
