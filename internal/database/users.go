package database

import (
	"context"

	"github.com/google/uuid"
)

const (
	createUserSQL = `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, display_name, role, created_at`

	getUserByEmailSQL = `
		SELECT id, email, password_hash, display_name, role, created_at
		FROM users WHERE email = $1`

	getUserByIDSQL = `
		SELECT id, email, password_hash, display_name, role, created_at
		FROM users WHERE id = $1`
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUserSQL, arg.Email, arg.PasswordHash, arg.DisplayName, arg.Role).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmailSQL, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByIDSQL, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.CreatedAt)
	return u, err
}
