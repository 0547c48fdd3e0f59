package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepository{pool: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver,
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Println("Migrations applied successfully")
	return nil
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepository) Close() error {
	p.pool.Close()
	return nil
}

var linkColumns = []string{
	"id",
	"COALESCE(owner, '')",
	"link",
	"COALESCE(code, '')",
	"created_at",
	"updated_at",
	"usage_count",
	"expires_at",
}

func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(&link.ID, &link.Owner, &link.Link, &link.Code,
		&link.CreatedAt, &link.UpdatedAt, &link.UsageCount, &link.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}
	return link, nil
}

// nullable maps the empty string to NULL for owner and code columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (p *PostgresRepository) GetLinkByURL(ctx context.Context, originalURL string) (*models.Link, error) {
	query, args, err := p.sb.
		Select(linkColumns...).
		From("links").
		Where(squirrel.Eq{"link": originalURL}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanLink(p.pool.QueryRow(ctx, query, args...))
}

func (p *PostgresRepository) GetLinkByCode(ctx context.Context, code string) (*models.Link, error) {
	query, args, err := p.sb.
		Select(linkColumns...).
		From("links").
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanLink(p.pool.QueryRow(ctx, query, args...))
}

// InsertLink creates a link row with no code assigned yet and returns the
// store-generated identifier.
func (p *PostgresRepository) InsertLink(ctx context.Context, originalURL, owner string, expiresAt *time.Time, now time.Time) (int64, error) {
	query, args, err := p.sb.
		Insert("links").
		Columns("owner", "link", "created_at", "updated_at", "expires_at").
		Values(nullable(owner), originalURL, now, now, expiresAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var id int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrURLTaken
		}
		return 0, fmt.Errorf("insert link: %w", err)
	}

	return id, nil
}

// SetLinkCode assigns the final code to a freshly inserted row. A unique
// violation means another active link already carries this code.
func (p *PostgresRepository) SetLinkCode(ctx context.Context, id int64, code string, now time.Time) error {
	query, args, err := p.sb.
		Update("links").
		Set("code", code).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrCodeTaken
		}
		return fmt.Errorf("set link code: %w", err)
	}

	return nil
}

func (p *PostgresRepository) IncrementUsage(ctx context.Context, id int64, now time.Time) error {
	return p.addUsage(ctx, id, 1, now)
}

// AddUsage folds a buffered redirect count into the stored total.
func (p *PostgresRepository) AddUsage(ctx context.Context, id, delta int64, now time.Time) error {
	return p.addUsage(ctx, id, delta, now)
}

func (p *PostgresRepository) addUsage(ctx context.Context, id, delta int64, now time.Time) error {
	query, args, err := p.sb.
		Update("links").
		Set("usage_count", squirrel.Expr("usage_count + ?", delta)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update usage count: %w", err)
	}

	return nil
}

func (p *PostgresRepository) DeleteLink(ctx context.Context, id int64) error {
	query, args, err := p.sb.
		Delete("links").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	return nil
}

func (p *PostgresRepository) SelectExpired(ctx context.Context, now time.Time) ([]models.Link, error) {
	query, args, err := p.sb.
		Select(linkColumns...).
		From("links").
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expired links: %w", err)
	}
	defer rows.Close()

	var expired []models.Link
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.Owner, &link.Link, &link.Code,
			&link.CreatedAt, &link.UpdatedAt, &link.UsageCount, &link.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan expired link: %w", err)
		}
		expired = append(expired, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return expired, nil
}

// ArchiveLink copies an expired link into archivedlinks and removes the
// active row, both in one transaction.
func (p *PostgresRepository) ArchiveLink(ctx context.Context, link *models.Link, deletedAt time.Time) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery, insertArgs, err := p.sb.
		Insert("archivedlinks").
		Columns("owner", "link", "code", "created_at", "deleted_at", "usage_count").
		Values(nullable(link.Owner), link.Link, link.Code, link.CreatedAt, deletedAt, link.UsageCount).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := tx.Exec(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("insert archived link: %w", err)
	}

	deleteQuery, deleteArgs, err := p.sb.
		Delete("links").
		Where(squirrel.Eq{"id": link.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete expired link: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RotateLink replaces a link's row with a fresh one carrying a new code.
// Delete and recreate happen in one transaction so a crash cannot lose the
// link between the two steps. assignCode derives the code from the new
// store-generated identifier.
func (p *PostgresRepository) RotateLink(ctx context.Context, old *models.Link, assignCode func(id int64) (string, error), now time.Time) (string, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery, deleteArgs, err := p.sb.
		Delete("links").
		Where(squirrel.Eq{"id": old.ID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build delete query: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteQuery, deleteArgs...); err != nil {
		return "", fmt.Errorf("delete old link: %w", err)
	}

	insertQuery, insertArgs, err := p.sb.
		Insert("links").
		Columns("owner", "link", "created_at", "updated_at", "expires_at").
		Values(nullable(old.Owner), old.Link, now, now, old.ExpiresAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert query: %w", err)
	}

	var id int64
	if err := tx.QueryRow(ctx, insertQuery, insertArgs...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert replacement link: %w", err)
	}

	code, err := assignCode(id)
	if err != nil {
		return "", fmt.Errorf("assign code: %w", err)
	}

	updateQuery, updateArgs, err := p.sb.
		Update("links").
		Set("code", code).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build update query: %w", err)
	}

	if _, err := tx.Exec(ctx, updateQuery, updateArgs...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", ErrCodeTaken
		}
		return "", fmt.Errorf("set replacement code: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	return code, nil
}
