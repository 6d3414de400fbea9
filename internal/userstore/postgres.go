package userstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/photoshare/internal/db"
	"github.com/xxxsen/photoshare/internal/model"
	"github.com/xxxsen/photoshare/internal/pkg/dbutil"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
)

const usersTable = "users"

var userColumns = []string{"email", "name", "password_hash", "created_at", "profile_image_url", "profile_image_mtime"}

// gendry has no postgres upsert builder.
const upsertUserSQL = `INSERT INTO users (email, name, password_hash, created_at, profile_image_url, profile_image_mtime)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (email) DO UPDATE SET
	name = EXCLUDED.name,
	password_hash = EXCLUDED.password_hash,
	created_at = EXCLUDED.created_at,
	profile_image_url = EXCLUDED.profile_image_url,
	profile_image_mtime = EXCLUDED.profile_image_mtime`

type postgresStore struct {
	db *sql.DB
}

func init() {
	Register("postgres", createPostgresStore)
}

func createPostgresStore(args interface{}) (Store, error) {
	opts := db.Options{}
	if err := decodeConfig(args, &opts); err != nil {
		return nil, err
	}
	if opts.DSN == "" && opts.Host == "" {
		return nil, fmt.Errorf("postgres dsn or host is required")
	}
	conn, err := db.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return NewPostgresStore(conn), nil
}

func NewPostgresStore(conn *sql.DB) Store {
	return &postgresStore{db: conn}
}

func (s *postgresStore) Put(ctx context.Context, user *model.User) error {
	if err := validateKey(user.Email); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, upsertUserSQL,
		user.Email,
		user.Name,
		user.PasswordHash,
		toUnix(user.CreatedAt),
		user.ProfileImageURL,
		toUnix(user.ProfileImageUpdatedAt),
	)
	return err
}

func (s *postgresStore) Get(ctx context.Context, email string) (*model.User, error) {
	users, err := s.query(ctx, map[string]interface{}{"email": email})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, appErr.ErrNotFound
	}
	return users[0], nil
}

func (s *postgresStore) SetProfileImage(ctx context.Context, email, key string, at time.Time) error {
	where := map[string]interface{}{"email": email}
	update := map[string]interface{}{
		"profile_image_url":   key,
		"profile_image_mtime": toUnix(at),
	}
	affected, err := s.update(ctx, where, update)
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (s *postgresStore) ClearProfileImage(ctx context.Context, email, key string) error {
	where := map[string]interface{}{"email": email, "profile_image_url": key}
	update := map[string]interface{}{
		"profile_image_url":   "",
		"profile_image_mtime": 0,
	}
	_, err := s.update(ctx, where, update)
	return err
}

func (s *postgresStore) ListWithProfileImage(ctx context.Context) ([]*model.User, error) {
	return s.query(ctx, map[string]interface{}{
		"profile_image_url !=": "",
		"_orderby":             "email asc",
	})
}

func (s *postgresStore) update(ctx context.Context, where, update map[string]interface{}) (int64, error) {
	sqlStr, args, err := builder.BuildUpdate(usersTable, where, update)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *postgresStore) query(ctx context.Context, where map[string]interface{}) ([]*model.User, error) {
	sqlStr, args, err := builder.BuildSelect(usersTable, where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.User
	for rows.Next() {
		var (
			user             model.User
			createdAt, imgAt int64
		)
		if err := rows.Scan(&user.Email, &user.Name, &user.PasswordHash, &createdAt, &user.ProfileImageURL, &imgAt); err != nil {
			return nil, err
		}
		user.CreatedAt = fromUnix(createdAt)
		user.ProfileImageUpdatedAt = fromUnix(imgAt)
		out = append(out, &user)
	}
	return out, rows.Err()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}
