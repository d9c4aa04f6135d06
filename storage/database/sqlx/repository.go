package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/storage/database"
)

// repository holds what every sqlx repository shares: the default executor & the query builder.
type repository struct {
	exec core.DBExecutor
	sb   sq.StatementBuilderType
}

func newRepository(db *sqlx.DB) repository {
	return repository{exec: db, sb: database.StatementBuilder(db.DriverName())}
}

// getExec returns the executor passed by the service (a transaction), or the repository's DB.
func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) get(ctx context.Context, exec core.DBExecutor, dest interface{}, query sq.Sqlizer) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, q, args...)
}

func (repo repository) selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query sq.Sqlizer) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, q, args...)
}

// execAffected runs query and returns the number of affected rows.
func (repo repository) execAffected(ctx context.Context, exec core.DBExecutor, query sq.Sqlizer) (int64, error) {
	q, args, err := query.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (repo repository) count(ctx context.Context, exec core.DBExecutor, query sq.SelectBuilder) (int, error) {
	var total int
	if err := repo.get(ctx, exec, &total, query); err != nil {
		return 0, errors.Wrap(err, "counting rows")
	}
	return total, nil
}

// trapNoRowsErr maps sql.ErrNoRows to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func paginate(query sq.SelectBuilder, p core.Pagination) sq.SelectBuilder {
	return query.Limit(uint64(p.Limit)).Offset(uint64(p.Offset()))
}
