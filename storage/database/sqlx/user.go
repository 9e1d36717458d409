package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

var userColumns = []string{
	"id", "name", "login_id", "password_hash", "role", "ref_id", "is_active", "last_login", "created_at", "updated_at",
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	LoginID      string    `db:"login_id"`
	PasswordHash []byte    `db:"password_hash"`
	Role         string    `db:"role"`
	RefID        string    `db:"ref_id"`
	IsActive     bool      `db:"is_active"`
	LastLogin    null.Time `db:"last_login"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		LoginID:      usr.LoginID,
		PasswordHash: usr.PasswordHash,
		Role:         usr.Role,
		RefID:        usr.RefID,
		IsActive:     usr.IsActive,
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
}

func (row userRow) values() []interface{} {
	return []interface{}{
		row.ID, row.Name, row.LoginID, row.PasswordHash, row.Role, row.RefID, row.IsActive, row.LastLogin, row.CreatedAt, row.UpdatedAt,
	}
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		LoginID:      row.LoginID,
		Role:         row.Role,
		RefID:        row.RefID,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB, conf *core.Config) user.Repository {
	return &userRepository{repo: newRepo(db, conf)}
}

func (r *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID()
	row := newUserRow(usr)
	q := psql.Insert(usersTable).Columns(userColumns...).Values(row.values()...)
	if _, err := r.exec(ctx, q); err != nil {
		if uniqueConstraint(err) != "" {
			return user.User{}, user.ErrLoginIDExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.toUser(), nil
}

func (r *userRepository) Get(ctx context.Context, id string) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}
	return r.getWhere(ctx, sq.Eq{"id": id})
}

func (r *userRepository) GetByLoginID(ctx context.Context, loginID string) (user.User, error) {
	return r.getWhere(ctx, sq.Eq{"login_id": loginID})
}

func (r *userRepository) getWhere(ctx context.Context, where sq.Eq) (user.User, error) {
	var row userRow
	q := psql.Select(userColumns...).From(usersTable).Where(where)
	if err := r.get(ctx, q, &row, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (r *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	row := newUserRow(usr)
	q := psql.Update(usersTable).
		SetMap(map[string]interface{}{
			"name":          row.Name,
			"login_id":      row.LoginID,
			"password_hash": row.PasswordHash,
			"role":          row.Role,
			"ref_id":        row.RefID,
			"is_active":     row.IsActive,
			"last_login":    row.LastLogin,
			"updated_at":    row.UpdatedAt,
		}).
		Where(sq.Eq{"id": row.ID})

	res, err := r.exec(ctx, q)
	if err != nil {
		if uniqueConstraint(err) != "" {
			return user.User{}, user.ErrLoginIDExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return row.toUser(), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	_, err := r.exec(ctx, psql.Delete(usersTable).Where(sq.Eq{"id": id}))
	return errors.Wrap(err, "deleting user")
}
