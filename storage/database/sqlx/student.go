package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/student"
	"github.com/trezcool/malipo/storage/database"
)

var studentColumns = []string{"id", "name", "roll_number", "class", "parent_contact", "created_at"}

type studentRepository struct {
	repository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{repository: newRepository(db)}
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	query := repo.sb.Insert("student").
		Columns("name", "roll_number", "class", "parent_contact", "created_at").
		Values(std.Name, std.RollNumber, std.Class, std.ParentContact, std.CreatedAt.UTC()).
		Suffix("RETURNING id")
	if err := repo.get(ctx, repo.getExec(exec), &std.ID, query); err != nil {
		if database.IsUniqueViolation(err) {
			return student.Student{}, student.ErrRollNumberExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int64, exec ...core.DBExecutor) (student.Student, error) {
	var std student.Student
	query := repo.sb.Select(studentColumns...).From("student").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, repo.getExec(exec), &std, query); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return std, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return repo.count(ctx, repo.getExec(exec), repo.sb.Select("COUNT(*)").From("student"))
}
