package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/internal/common"
)

const usersTable = "users"

type UserRepository interface {
	Create(ctx context.Context, id uuid.UUID, email string) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type userRepo struct {
	db  *DB
	log *slog.Logger
}

func NewUserRepository(db *DB, log *slog.Logger) UserRepository {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Create(ctx context.Context, id uuid.UUID, email string) error {
	query, args := r.db.builder().Insert(usersTable).
		Columns("id", "email", "created_at").
		Values(id, email, time.Now().UTC()).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("user create failed", "user_id", id, "err", err)
		return fmt.Errorf("%w: create user: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *userRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	b := r.db.builder()
	t := b.Table(usersTable)
	query, args := b.Select(t.C("id")).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Limit(1).
		Query()
	var found uuid.UUID
	err := r.db.SQL.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.log.Error("user lookup failed", "user_id", id, "err", err)
		return false, fmt.Errorf("%w: lookup user: %v", common.ErrDatabase, err)
	}
	return true, nil
}
