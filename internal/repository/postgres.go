package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"propsearch/internal/model"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection pool
func NewWithDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const propertyColumns = `
	p.id, p.title, p.slug, p.description, p.property_type, p.price, p.bedrooms,
	p.bathrooms, p.area_sqft, p.location_id, l.name AS location_name,
	l.slug AS location_slug, p.images, p.amenities, p.is_active, p.is_available,
	p.is_featured, p.views, p.created_at, p.updated_at`

const propertyFrom = `properties p LEFT JOIN locations l ON l.id = p.location_id`

// FindLocations returns locations whose name or slug contains the substring,
// featured first, then by property count
func (r *PostgresRepository) FindLocations(ctx context.Context, q model.LocationLookup) ([]model.Location, error) {
	query := `
		SELECT id, name, slug, is_active, is_featured, property_count
		FROM locations
		WHERE (name ILIKE $1 OR slug ILIKE $1)`
	if q.ActiveOnly {
		query += ` AND is_active = true`
	}
	query += `
		ORDER BY is_featured DESC, property_count DESC, name ASC
		LIMIT $2`

	var locations []model.Location
	if err := r.db.SelectContext(ctx, &locations, query, containsPattern(q.Substring), q.Limit); err != nil {
		return nil, fmt.Errorf("failed to find locations: %w", err)
	}
	return locations, nil
}

// ListActiveLocations returns every active location for the query vocabulary
func (r *PostgresRepository) ListActiveLocations(ctx context.Context) ([]model.Location, error) {
	query := `
		SELECT id, name, slug, is_active, is_featured, property_count
		FROM locations
		WHERE is_active = true
		ORDER BY is_featured DESC, property_count DESC, name ASC`

	var locations []model.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// FindProperties returns properties whose title or description contains the
// substring, featured first, then by views
func (r *PostgresRepository) FindProperties(ctx context.Context, q model.PropertyLookup) ([]model.PropertySummary, error) {
	whereClauses := []string{"(p.title ILIKE $1 OR p.description ILIKE $1)"}
	whereClauses = append(whereClauses, statusClauses(q.ActiveOnly, q.AvailableOnly)...)

	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.slug, p.property_type, p.bedrooms, p.location_id,
			l.name AS location_name
		FROM %s
		WHERE %s
		ORDER BY p.is_featured DESC, p.views DESC
		LIMIT $2`, propertyFrom, strings.Join(whereClauses, " AND "))

	var properties []model.PropertySummary
	if err := r.db.SelectContext(ctx, &properties, query, containsPattern(q.Substring), q.Limit); err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	return properties, nil
}

// CountProperties counts properties of one type
func (r *PostgresRepository) CountProperties(ctx context.Context, q model.PropertyCount) (int, error) {
	whereClauses := append([]string{"p.property_type = $1"}, statusClauses(q.ActiveOnly, q.AvailableOnly)...)
	query := fmt.Sprintf("SELECT COUNT(*) FROM properties p WHERE %s", strings.Join(whereClauses, " AND "))

	var count int
	if err := r.db.GetContext(ctx, &count, query, q.Type); err != nil {
		return 0, fmt.Errorf("failed to count %s properties: %w", q.Type, err)
	}
	return count, nil
}

// SearchProperties performs a filtered listing search over active, available properties
func (r *PostgresRepository) SearchProperties(
	ctx context.Context,
	filters *model.ListingFilters,
	limit, offset int,
) ([]model.Property, int, error) {
	whereClause, args := buildListingWhere(filters)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", propertyFrom, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count results: %w", err)
	}

	argIndex := len(args) + 1
	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY p.is_featured DESC, p.views DESC, p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, propertyColumns, propertyFrom, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch properties: %w", err)
	}

	return properties, total, nil
}

// buildListingWhere turns listing filters into a WHERE clause and its
// positional arguments. Active and available are always required.
func buildListingWhere(filters *model.ListingFilters) (string, []interface{}) {
	whereClauses := statusClauses(true, true)
	args := []interface{}{}
	argIndex := 1

	if filters != nil {
		if filters.PropertyType != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("p.property_type = $%d", argIndex))
			args = append(args, string(*filters.PropertyType))
			argIndex++
		}
		if filters.MinBedrooms != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("p.bedrooms >= $%d", argIndex))
			args = append(args, *filters.MinBedrooms)
			argIndex++
		}
		if filters.MinPrice != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("p.price >= $%d", argIndex))
			args = append(args, *filters.MinPrice)
			argIndex++
		}
		if filters.MaxPrice != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("p.price <= $%d", argIndex))
			args = append(args, *filters.MaxPrice)
			argIndex++
		}
		if filters.Location != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("(LOWER(l.name) = LOWER($%d) OR l.slug = LOWER($%d))", argIndex, argIndex))
			args = append(args, *filters.Location)
			argIndex++
		}
		if filters.FreeText != "" {
			whereClauses = append(whereClauses, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", argIndex, argIndex))
			args = append(args, containsPattern(filters.FreeText))
		}
	}

	return strings.Join(whereClauses, " AND "), args
}

// GetPropertyBySlug retrieves a single active property
func (r *PostgresRepository) GetPropertyBySlug(ctx context.Context, slug string) (*model.Property, error) {
	var property model.Property
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE p.slug = $1 AND p.is_active = true`, propertyColumns, propertyFrom)
	err := r.db.GetContext(ctx, &property, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

// SimilarProperties returns the active, available properties whose embedding
// is closest (cosine distance) to the one for slug. A property without an
// embedding has no neighbours.
func (r *PostgresRepository) SimilarProperties(ctx context.Context, slug string, limit int) ([]model.Property, error) {
	var reference pgvector.Vector
	err := r.db.GetContext(ctx, &reference,
		`SELECT embedding FROM properties WHERE slug = $1 AND embedding IS NOT NULL`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []model.Property{}, nil
		}
		return nil, fmt.Errorf("failed to load reference embedding: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE p.is_active = true AND p.is_available = true
			AND p.slug <> $1 AND p.embedding IS NOT NULL
		ORDER BY p.embedding <=> $2
		LIMIT $3
	`, propertyColumns, propertyFrom)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query, slug, reference, limit); err != nil {
		return nil, fmt.Errorf("failed to find similar properties: %w", err)
	}
	return properties, nil
}

// BatchUpdateEmbeddings updates embeddings for multiple properties
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		vec := pgvector.NewVector(item.Embedding)
		res, err := stmt.ExecContext(ctx, vec, item.PropertyID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("property %s: %v", item.PropertyID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errs = append(errs, fmt.Sprintf("property %s: not found", item.PropertyID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// LogSearch logs a listing search
func (r *PostgresRepository) LogSearch(ctx context.Context, entry *model.SearchLog) error {
	var parsed []byte
	if entry.Parsed != nil {
		var err error
		if parsed, err = json.Marshal(entry.Parsed); err != nil {
			return fmt.Errorf("failed to encode parsed query: %w", err)
		}
	}

	query := `
		INSERT INTO search_logs (search_id, query, parsed_filters, result_count, returned_property_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.SearchID, entry.Query, parsed, entry.ResultCount, pq.Array(entry.PropertyIDs), entry.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback records user feedback against a logged search. It returns
// model.ErrNotFound when no search has that id.
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID, targetID, action string) error {
	query := `
		UPDATE search_logs
		SET clicked_target_id = $2, action = $3
		WHERE search_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, searchID, targetID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("search %s: %w", searchID, model.ErrNotFound)
	}
	return nil
}

func statusClauses(activeOnly, availableOnly bool) []string {
	var clauses []string
	if activeOnly {
		clauses = append(clauses, "p.is_active = true")
	}
	if availableOnly {
		clauses = append(clauses, "p.is_available = true")
	}
	return clauses
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
