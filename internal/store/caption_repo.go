package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type CaptionRepo struct{ DB *sql.DB }

func NewCaptionRepo(db *sql.DB) *CaptionRepo { return &CaptionRepo{DB: db} }

// Open connects through the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open caption cache: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping caption cache: %w", err)
	}
	return db, nil
}

func (r *CaptionRepo) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists image_captions (
  image_hash text not null,
  task       text not null,
  caption    text not null,
  created_at timestamptz not null default now(),
  primary key (image_hash, task)
)`
	_, err := r.DB.ExecContext(ctx, q)
	return err
}

// Find returns the cached caption for (image_hash, task); ok is false on a miss.
func (r *CaptionRepo) Find(ctx context.Context, imageHash, task string) (string, bool, error) {
	const q = `select caption from image_captions where image_hash = $1 and task = $2`
	var caption string
	err := r.DB.QueryRowContext(ctx, q, imageHash, task).Scan(&caption)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return caption, true, nil
}

// Save upserts a caption; an existing row for the key is overwritten.
func (r *CaptionRepo) Save(ctx context.Context, imageHash, task, caption string) error {
	const q = `
insert into image_captions (image_hash, task, caption)
values ($1, $2, $3)
on conflict (image_hash, task) do update
set caption = excluded.caption,
    created_at = now()`
	_, err := r.DB.ExecContext(ctx, q, imageHash, task, caption)
	return err
}
