package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/user"
)

var userColumns = []string{
	"id",
	"name",
	"COALESCE(username, '') AS username",
	"COALESCE(email, '') AS email",
	"is_active",
	"roles",
	"password_hash",
	"created_at",
	"updated_at",
	"last_login",
}

// userRow is a user as stored: roles are a comma separated list.
type userRow struct {
	user.User
	RolesList string `db:"roles"`
}

func (row userRow) toUser() user.User {
	usr := row.User
	usr.CreatedAt = usr.CreatedAt.UTC()
	usr.UpdatedAt = usr.UpdatedAt.UTC()
	if usr.LastLogin.Valid {
		usr.LastLogin.Time = usr.LastLogin.Time.UTC()
	}
	usr.Roles = nil
	if row.RolesList != "" {
		usr.Roles = strings.Split(row.RolesList, ",")
	}
	return usr
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{repository: newRepository(db)}
}

func nullableString(s string) null.String {
	return null.NewString(s, s != "")
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	var conds sq.Or
	if username != "" {
		conds = append(conds, sq.Eq{"username": username})
	}
	if email != "" {
		conds = append(conds, sq.Eq{"email": email})
	}
	if len(conds) == 0 {
		return nil
	}

	var taken []userRow
	query := repo.sb.Select(userColumns...).From(`"user"`).Where(conds).Limit(2)
	if err := repo.selectAll(ctx, repo.getExec(exec), &taken, query); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range taken {
		if username != "" && row.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	query := repo.sb.Insert(`"user"`).
		Columns("id", "name", "username", "email", "is_active", "roles", "password_hash", "created_at", "updated_at", "last_login").
		Values(
			usr.ID, usr.Name, nullableString(usr.Username), nullableString(usr.Email), usr.IsActive,
			strings.Join(usr.Roles, ","), usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), usr.LastLogin,
		)
	if _, err := repo.execAffected(ctx, repo.getExec(exec), query); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	where := sq.Eq{}
	switch {
	case filter.ID != "":
		where["id"] = filter.ID
	case filter.Username != "":
		where["username"] = filter.Username
	case filter.Email != "":
		where["email"] = filter.Email
	case filter.UsernameOrEmail != "":
		return repo.getUser(ctx, repo.getExec(exec), sq.Or{
			sq.Eq{"username": filter.UsernameOrEmail},
			sq.Eq{"email": filter.UsernameOrEmail},
		})
	default:
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, repo.getExec(exec), where)
}

func (repo userRepository) getUser(ctx context.Context, exec core.DBExecutor, where sq.Sqlizer) (user.User, error) {
	var row userRow
	query := repo.sb.Select(userColumns...).From(`"user"`).Where(where).Limit(1)
	if err := repo.get(ctx, exec, &row, query); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	query := repo.sb.Update(`"user"`).
		Set("name", usr.Name).
		Set("username", nullableString(usr.Username)).
		Set("email", nullableString(usr.Email)).
		Set("is_active", usr.IsActive).
		Set("roles", strings.Join(usr.Roles, ",")).
		Set("password_hash", usr.PasswordHash).
		Set("updated_at", usr.UpdatedAt).
		Set("last_login", usr.LastLogin).
		Where(sq.Eq{"id": usr.ID})

	affected, err := repo.execAffected(ctx, repo.getExec(exec), query)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if affected == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
