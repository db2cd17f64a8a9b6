package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	Level        string      `db:"level"`
	Motivation   string      `db:"motivation"`
	GoogleID     null.String `db:"google_id"`
	PasswordHash string      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		IsActive:     r.IsActive,
		Level:        r.Level,
		Motivation:   r.Motivation,
		GoogleID:     r.GoogleID.String,
		PasswordHash: []byte(r.PasswordHash),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

type UserRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (repo *UserRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM users WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	q, inArgs, err := in(repo.db, query, args)
	if err != nil {
		return err
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, q, inArgs...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *UserRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	query := repo.db.Rebind(`
		INSERT INTO users (id, name, email, role, is_active, level, motivation, google_id, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.IsActive, usr.Level, usr.Motivation,
		null.NewString(usr.GoogleID, usr.GoogleID != ""), string(usr.PasswordHash), usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *UserRepository) getBy(ctx context.Context, field, val string) (user.User, error) {
	var row userRow
	query := repo.db.Rebind(`SELECT * FROM users WHERE ` + field + ` = ?`)
	if err := repo.db.GetContext(ctx, &row, query, val); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by "+field)
	}
	return row.toUser(), nil
}

func (repo *UserRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *UserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, "email", email)
}

func (repo *UserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (user.User, error) {
	return repo.getBy(ctx, "google_id", googleID)
}

var userOrderFields = map[string]bool{"name": true, "email": true, "role": true, "created_at": true, "last_login": true}

func (repo *UserRepository) FilterUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := `SELECT * FROM users`
	var clauses []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			clauses = append(clauses, `(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)`)
			like := "%" + strings.ToLower(filter.Search) + "%"
			args = append(args, like, like)
		}
		if filter.Role != "" {
			clauses = append(clauses, `role = ?`)
			args = append(args, filter.Role)
		}
		if filter.IsActive != nil {
			clauses = append(clauses, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			clauses = append(clauses, `created_at >= ?`)
			args = append(args, filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			clauses = append(clauses, `created_at <= ?`)
			args = append(args, filter.CreatedTo)
		}
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, userOrderFields, "created_at DESC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *UserRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	sets := []string{`updated_at = ?`}
	args := []interface{}{usr.UpdatedAt}

	if usr.Name != "" {
		sets = append(sets, `name = ?`)
		args = append(args, usr.Name)
	}
	if usr.Email != "" {
		sets = append(sets, `email = ?`)
		args = append(args, usr.Email)
	}
	if usr.Role != "" {
		sets = append(sets, `role = ?`)
		args = append(args, usr.Role)
	}
	if usr.Level != "" {
		sets = append(sets, `level = ?`)
		args = append(args, usr.Level)
	}
	if usr.Motivation != "" {
		sets = append(sets, `motivation = ?`)
		args = append(args, usr.Motivation)
	}
	if usr.GoogleID != "" {
		sets = append(sets, `google_id = ?`)
		args = append(args, usr.GoogleID)
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, `password_hash = ?`)
		args = append(args, string(usr.PasswordHash))
	}
	if isActive != nil {
		sets = append(sets, `is_active = ?`)
		args = append(args, *isActive)
	}
	args = append(args, usr.ID)

	query := repo.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *UserRepository) SetUserLastLogin(ctx context.Context, id string, at time.Time) (user.User, error) {
	query := repo.db.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`)
	if _, err := repo.db.ExecContext(ctx, query, at, id); err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return repo.GetUserByID(ctx, id)
}

func (repo *UserRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in(repo.db, `DELETE FROM users WHERE id IN (?)`, []interface{}{ids})
	if err != nil {
		return err
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
