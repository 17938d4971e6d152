package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/slot-booking-api/internal/model"
	"github.com/iliyamo/slot-booking-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the signup fields.  Password is plain text and is hashed
// by Create.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Contact  string
	Role     string
}

const userColumns = `id, name, email, password_hash, contact, role, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Contact, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

// Create hashes the password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(nu.Email))
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	role := nu.Role
	if role == "" {
		role = model.RoleCustomer
	}
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, contact, role, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		strings.TrimSpace(nu.Name), email, hash, strings.TrimSpace(nu.Contact), role, now, now)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}
