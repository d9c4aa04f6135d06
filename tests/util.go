package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/core/student"
	"github.com/trezcool/malipo/core/user"
	"github.com/trezcool/malipo/storage/database"
)

// NewConfig returns the configuration tests run with: sqlite engine, no request logs, no rollbar.
func NewConfig() *core.Config {
	conf := &core.Config{
		AppName:   "Malipo",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: database.EngineSQLite},
		Billing: core.BillingConfig{
			DueGracePeriod: 14 * 24 * time.Hour,
		},
	}
	_ = conf.Billing.SetTimezone("UTC")
	return conf
}

// PrepareDB opens a migrated sqlite database living in the test's temp dir.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "malipo_test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed to open: %v", err)
	}
	if err = database.Migrate(db.DB, database.EngineSQLite); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// NewValidator returns a validator with every custom validation and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	billing.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, name, rollNumber, class string) student.Student {
	std, err := repo.CreateStudent(context.Background(), student.Student{
		Name:       name,
		RollNumber: rollNumber,
		Class:      class,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

// CreateInvoice inserts an invoice as stored, bypassing status reconciliation.
func CreateInvoice(
	t *testing.T,
	repo billing.InvoiceRepository,
	studentID int64,
	number string,
	total, paid string,
	due core.Date,
	status billing.Status,
) billing.Invoice {
	now := time.Now().UTC()
	inv, err := repo.InsertInvoice(context.Background(), billing.Invoice{
		StudentID:     studentID,
		InvoiceNumber: number,
		Description:   "Fees for " + number,
		TotalAmount:   core.MustMoney(total),
		PaidAmount:    core.MustMoney(paid),
		DueDate:       due,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("createInvoice() failed: %v", err)
	}
	return inv
}

func CreateFee(t *testing.T, repo billing.FeeRepository, studentID int64, amount, status, monthPaid string) billing.Fee {
	fee := billing.Fee{
		StudentID: studentID,
		Amount:    core.MustMoney(amount),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if monthPaid != "" {
		fee.MonthPaid.SetValid(monthPaid)
	}
	fee, err := repo.InsertFee(context.Background(), fee)
	if err != nil {
		t.Fatalf("createFee() failed: %v", err)
	}
	return fee
}
