package localization

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for languages and resources.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListLanguages returns languages ordered by display order; unpublished ones
// only when showHidden is set.
func (r *Repository) ListLanguages(ctx context.Context, showHidden bool) ([]Language, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, culture, published FROM languages WHERE published OR $1 ORDER BY display_order, id`, showHidden)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var langs []Language
	for rows.Next() {
		var (
			lang    Language
			culture string
		)
		if err := rows.Scan(&lang.ID, &lang.Name, &culture, &lang.Published); err != nil {
			return nil, err
		}
		lang.Culture = parseCulture(culture)
		langs = append(langs, lang)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return langs, nil
}

// UpsertResource inserts or replaces a resource value.
func (r *Repository) UpsertResource(ctx context.Context, res Resource) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO locale_string_resources (language_id, resource_name, resource_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (language_id, resource_name) DO UPDATE SET resource_value = EXCLUDED.resource_value`,
		res.LanguageID, res.Name, res.Value)
	return err
}

// GetResource returns the resource value, reporting whether it exists.
func (r *Repository) GetResource(ctx context.Context, languageID int64, name string) (string, bool, error) {
	var value string
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT resource_value FROM locale_string_resources WHERE language_id = $1 AND resource_name = $2`,
		languageID, name).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// DeleteResource removes a resource for the given language.
func (r *Repository) DeleteResource(ctx context.Context, languageID int64, name string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM locale_string_resources WHERE language_id = $1 AND resource_name = $2`, languageID, name)
	return err
}

func parseCulture(raw string) language.Tag {
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und
	}
	return tag
}
