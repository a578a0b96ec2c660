package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Matcher resolves priced catalog items for response generation. It is a
// separate interface so the keyword heuristic can be swapped for an exact
// catalog-id mapping without touching the response service.
type Matcher interface {
	// FindBestMatch returns the highest-priced active, sellable item whose
	// name or notes contain any of the keywords, or nil when nothing matches.
	FindBestMatch(ctx context.Context, keywords []string) (*Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
}

// Repository defines catalog data access interface
type Repository interface {
	Matcher
	Search(ctx context.Context, query string, limit int) ([]*Item, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindBestMatch(ctx context.Context, keywords []string) (*Item, error) {
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, kw)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []interface{}
	for i, term := range terms {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR notes ILIKE $%d)", i+1, i+1))
		args = append(args, "%"+term+"%")
	}

	query := fmt.Sprintf(`
		SELECT * FROM catalog_items
		WHERE is_active = TRUE AND is_sellable = TRUE AND (%s)
		ORDER BY sale_price DESC, sell_price DESC
		LIMIT 1
	`, strings.Join(clauses, " OR "))

	var item Item
	err := r.db.GetContext(ctx, &item, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT * FROM catalog_items WHERE id = $1`

	var item Item
	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) Search(ctx context.Context, query string, limit int) ([]*Item, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	sqlQuery := `
		SELECT * FROM catalog_items
		WHERE is_active = TRUE AND is_sellable = TRUE
		  AND (name ILIKE $1 OR notes ILIKE $1)
		ORDER BY sale_price DESC, sell_price DESC
		LIMIT $2
	`

	items := []*Item{}
	if err := r.db.SelectContext(ctx, &items, sqlQuery, "%"+strings.TrimSpace(query)+"%", limit); err != nil {
		return nil, err
	}

	return items, nil
}
