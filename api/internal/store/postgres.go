package store

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresLastImage — таблица last_images (user_id PK).
type PostgresLastImage struct{ DB *sql.DB }

func NewPostgresLastImage(db *sql.DB) *PostgresLastImage { return &PostgresLastImage{DB: db} }

const lastImagesDDL = `
create table if not exists last_images (
  user_id    bigint primary key,
  image_ref  text not null,
  updated_at timestamptz not null default now()
)`

// Migrate создаёт таблицу, если её нет.
func (r *PostgresLastImage) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, lastImagesDDL)
	return err
}

func (r *PostgresLastImage) Get(ctx context.Context, userID int64) (string, error) {
	const q = `select image_ref from last_images where user_id = $1`
	var ref string
	if err := r.DB.QueryRowContext(ctx, q, userID).Scan(&ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return ref, nil
}

// Set перезаписывает ссылку пользователя (last write wins).
func (r *PostgresLastImage) Set(ctx context.Context, userID int64, ref string) error {
	const q = `
insert into last_images (user_id, image_ref)
values ($1, $2)
on conflict (user_id) do update
set image_ref = excluded.image_ref, updated_at = now()`
	_, err := r.DB.ExecContext(ctx, q, userID, ref)
	return err
}
