package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediavault/backend/internal/db"
	"github.com/mediavault/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, status, role, profile_image, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, status, role, profile_image, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Name, user.Email, user.Password, user.Status, user.Role, user.ProfileImage, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// List returns every user, newest first.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET name = $2, email = $3, password_hash = $4, status = $5, role = $6, profile_image = $7, updated_at = $8
        WHERE id = $1
    `, user.ID, user.Name, user.Email, user.Password, user.Status, user.Role, user.ProfileImage, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a user. Owned media records are removed by the schema's
// cascade rule.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Status, &user.Role, &user.ProfileImage, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// PostgresTagRepository provides PostgreSQL-backed persistence for tags.
type PostgresTagRepository struct {
	pool db.Pool
}

// NewPostgresTagRepository constructs a tag repository backed by PostgreSQL.
func NewPostgresTagRepository(pool db.Pool) *PostgresTagRepository {
	return &PostgresTagRepository{pool: pool}
}

// Create persists a new tag.
func (r *PostgresTagRepository) Create(ctx context.Context, tag models.Tag) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tags (id, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
    `, tag.ID, tag.Name, tag.CreatedAt, tag.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert tag: %w", err)
	}

	return nil
}

// FindByID fetches a tag by its identifier.
func (r *PostgresTagRepository) FindByID(ctx context.Context, id string) (models.Tag, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tag{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM tags WHERE id = $1`, id)

	var tag models.Tag
	if err := row.Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, ErrNotFound
		}
		return models.Tag{}, fmt.Errorf("scan tag: %w", err)
	}

	return tag, nil
}

// FindByIDs resolves identifiers against existing tags; unknown ids yield no rows.
func (r *PostgresTagRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, name, created_at, updated_at
        FROM tags
        WHERE id = ANY($1)
        ORDER BY name
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("query tags by ids: %w", err)
	}
	defer rows.Close()

	return collectTags(rows)
}

// List returns every tag ordered by name.
func (r *PostgresTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT id, name, created_at, updated_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	return collectTags(rows)
}

// Update renames an existing tag.
func (r *PostgresTagRepository) Update(ctx context.Context, tag models.Tag) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	res, err := conn.Exec(ctx, `
        UPDATE tags SET name = $2, updated_at = $3 WHERE id = $1
    `, tag.ID, tag.Name, tag.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update tag: %w", err)
	}

	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a tag; associations are removed by the schema's cascade rule.
func (r *PostgresTagRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	res, err := conn.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func collectTags(rows pgx.Rows) ([]models.Tag, error) {
	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// PostgresMediaRepository provides PostgreSQL-backed persistence for media records.
type PostgresMediaRepository struct {
	pool db.Pool
}

// NewPostgresMediaRepository constructs a media repository backed by PostgreSQL.
func NewPostgresMediaRepository(pool db.Pool) *PostgresMediaRepository {
	return &PostgresMediaRepository{pool: pool}
}

const mediaColumns = `id, user_id, file_name, original_name, file_path, file_type, file_extension, file_size, number_of_views, created_at, updated_at`

// Create persists a new media record together with its tag associations.
func (r *PostgresMediaRepository) Create(ctx context.Context, media models.Media) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin media insert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO media (id, user_id, file_name, original_name, file_path, file_type, file_extension, file_size, number_of_views, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, media.ID, media.OwnerID, media.FileName, media.OriginalName, media.FilePath, media.FileType, media.FileExtension, media.FileSize, media.NumberOfViews, media.CreatedAt, media.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert media: %w", err)
	}

	if err := insertMediaTags(ctx, tx, media.ID, media.Tags); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit media insert: %w", err)
	}

	return nil
}

// FindByID fetches a media record with its tags without touching the view counter.
func (r *PostgresMediaRepository) FindByID(ctx context.Context, id string) (models.Media, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Media{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id)
	media, err := scanMedia(row)
	if err != nil {
		return models.Media{}, err
	}

	if err := attachTags(ctx, conn, &media); err != nil {
		return models.Media{}, err
	}

	return media, nil
}

// FindByIDIncrementingViews bumps the view counter and returns the updated
// record. The increment happens in a single UPDATE so concurrent reads of the
// same record never lose updates.
func (r *PostgresMediaRepository) FindByIDIncrementingViews(ctx context.Context, id string) (models.Media, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Media{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE media
        SET number_of_views = number_of_views + 1
        WHERE id = $1
        RETURNING `+mediaColumns, id)
	media, err := scanMedia(row)
	if err != nil {
		return models.Media{}, err
	}

	if err := attachTags(ctx, conn, &media); err != nil {
		return models.Media{}, err
	}

	return media, nil
}

// List returns every media record, newest first, with tags attached.
func (r *PostgresMediaRepository) List(ctx context.Context) ([]models.Media, error) {
	return r.list(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC`)
}

// ListByOwner returns the media records owned by the provided user.
func (r *PostgresMediaRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Media, error) {
	return r.list(ctx, `SELECT `+mediaColumns+` FROM media WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (r *PostgresMediaRepository) list(ctx context.Context, query string, args ...any) ([]models.Media, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	var records []models.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, media)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}

	for i := range records {
		if err := attachTags(ctx, conn, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// Update rewrites the record's mutable fields and replaces its tag set.
func (r *PostgresMediaRepository) Update(ctx context.Context, media models.Media) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin media update: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
        UPDATE media
        SET file_name = $2, original_name = $3, file_path = $4, file_type = $5, file_extension = $6, file_size = $7, updated_at = $8
        WHERE id = $1
    `, media.ID, media.FileName, media.OriginalName, media.FilePath, media.FileType, media.FileExtension, media.FileSize, media.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}

	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM media_tags WHERE media_id = $1`, media.ID); err != nil {
		return fmt.Errorf("clear media tags: %w", err)
	}

	if err := insertMediaTags(ctx, tx, media.ID, media.Tags); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit media update: %w", err)
	}

	return nil
}

// Delete removes a media record; tag associations cascade.
func (r *PostgresMediaRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	res, err := conn.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func insertMediaTags(ctx context.Context, tx pgx.Tx, mediaID string, tags []models.Tag) error {
	for _, tag := range tags {
		if _, err := tx.Exec(ctx, `
            INSERT INTO media_tags (media_id, tag_id) VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, mediaID, tag.ID); err != nil {
			return fmt.Errorf("insert media tag: %w", err)
		}
	}
	return nil
}

func attachTags(ctx context.Context, conn *pgxpool.Conn, media *models.Media) error {
	rows, err := conn.Query(ctx, `
        SELECT t.id, t.name, t.created_at, t.updated_at
        FROM tags t
        JOIN media_tags mt ON mt.tag_id = t.id
        WHERE mt.media_id = $1
        ORDER BY t.name
    `, media.ID)
	if err != nil {
		return fmt.Errorf("query media tags: %w", err)
	}
	defer rows.Close()

	tags, err := collectTags(rows)
	if err != nil {
		return err
	}

	media.Tags = tags
	return nil
}

func scanMedia(row pgx.Row) (models.Media, error) {
	var media models.Media
	if err := row.Scan(&media.ID, &media.OwnerID, &media.FileName, &media.OriginalName, &media.FilePath, &media.FileType, &media.FileExtension, &media.FileSize, &media.NumberOfViews, &media.CreatedAt, &media.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Media{}, ErrNotFound
		}
		return models.Media{}, fmt.Errorf("scan media: %w", err)
	}
	media.CreatedAt = media.CreatedAt.UTC()
	media.UpdatedAt = media.UpdatedAt.UTC()
	return media, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ TagRepository = (*PostgresTagRepository)(nil)
var _ MediaRepository = (*PostgresMediaRepository)(nil)
