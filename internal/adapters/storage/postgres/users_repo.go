package postgres

import (
	"context"
	"database/sql"

	"livestock-tracking/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, username, email, password_hash, name, phone,
	role, is_active, last_login, created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) (int64, error) {
	var id int64
	err := executor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO users (
			username, email, password_hash, name, phone,
			role, is_active, last_login, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`,
		u.Username,
		u.Email,
		u.PasswordHash,
		toNullString(u.Name),
		toNullString(u.Phone),
		u.Role,
		u.IsActive,
		toNullTime(u.LastLogin),
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET
			username = $2,
			email = $3,
			password_hash = $4,
			name = $5,
			phone = $6,
			role = $7,
			is_active = $8,
			last_login = $9,
			updated_at = $10
		WHERE id = $1
	`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		toNullString(u.Name),
		toNullString(u.Phone),
		u.Role,
		u.IsActive,
		toNullTime(u.LastLogin),
		u.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return users.User{}, mapError(err)
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return users.User{}, mapError(err)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	return exists, mapError(err)
}

// ExistsByEmail compara sin distinguir mayúsculas (índice único sobre lower(email)).
func (r *UsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	return exists, mapError(err)
}

func scanUser(s scanner) (users.User, error) {
	var (
		u           users.User
		name, phone sql.NullString
		lastLogin   sql.NullTime
	)
	if err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&name,
		&phone,
		&u.Role,
		&u.IsActive,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return users.User{}, err
	}
	u.Name = name.String
	u.Phone = phone.String
	u.LastLogin = fromNullTime(lastLogin)
	return u, nil
}
