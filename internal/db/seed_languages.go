package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type seedLanguage struct {
	code       string
	name       string
	nativeName string
}

var seedLanguages = []seedLanguage{
	{"en", "English", "English"},
	{"es", "Spanish", "Español"},
	{"fr", "French", "Français"},
	{"de", "German", "Deutsch"},
	{"ja", "Japanese", "日本語"},
	{"pt", "Portuguese", "Português"},
	{"zh", "Chinese", "中文"},
}

// EnsureLanguages inserts the supported language rows if they are missing.
// Registration depends on the default language row existing, so this runs
// before the API starts serving.
func EnsureLanguages(ctx context.Context, pool *pgxpool.Pool) error {
	for _, l := range seedLanguages {
		_, err := pool.Exec(ctx,
			`INSERT INTO languages (id, code, name, native_name)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO NOTHING`,
			uuid.NewString(), l.code, l.name, l.nativeName,
		)

		if err != nil {
			return err
		}
	}

	return nil
}
