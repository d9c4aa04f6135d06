package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("student not found")
	ErrRollNumberExists = errors.New("a student with this roll number already exists")
)

// Student is the identity row invoices and fees are billed to.
type Student struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	RollNumber    string    `json:"rollNumber" db:"roll_number"`
	Class         string    `json:"class" db:"class"`
	ParentContact string    `json:"parentContact" db:"parent_contact"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"` // UTC
}

type NewStudent struct {
	Name          string `json:"name" validate:"required,max=100"`
	RollNumber    string `json:"rollNumber" validate:"required,max=20"`
	Class         string `json:"class" validate:"required,max=20"`
	ParentContact string `json:"parentContact" validate:"omitempty,max=20"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	ns.Class = core.CleanString(ns.Class)
	ns.ParentContact = core.CleanString(ns.ParentContact)
	return validate.Struct(ns)
}

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, id int64, exec ...core.DBExecutor) (Student, error)
		CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	std, err := svc.repo.CreateStudent(ctx, Student{
		Name:          ns.Name,
		RollNumber:    ns.RollNumber,
		Class:         ns.Class,
		ParentContact: ns.ParentContact,
		CreatedAt:     time.Now().UTC(),
	})
	if err == ErrRollNumberExists {
		return Student{}, core.NewValidationError(err, core.FieldError{Field: "rollNumber", Error: err.Error()})
	}
	return std, err
}

func (svc *Service) Get(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountStudents(ctx)
}
