package main

import (
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/core/student"
	"github.com/trezcool/malipo/core/user"
	logsvc "github.com/trezcool/malipo/services/logger"
	"github.com/trezcool/malipo/storage/database"
	sqlxrepos "github.com/trezcool/malipo/storage/database/sqlx"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger := logsvc.NewConsoleOnlyLogger(logsvc.NewConsoleLogger(os.Stdout, logsvc.ComponentAdmin, conf.Debug))

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	// set up services
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	billing.InitValidators(validate, translator)

	students := sqlxrepos.NewStudentRepository(db)
	billingSvc := billing.NewService(
		conf,
		db,
		sqlxrepos.NewInvoiceRepository(db),
		sqlxrepos.NewPaymentRepository(db),
		sqlxrepos.NewFeeRepository(db),
		students,
		validate,
	)

	// start CLI
	cli := commandLine{
		db:         db,
		engine:     conf.Database.Engine,
		usrRepo:    sqlxrepos.NewUserRepository(db),
		studentSvc: student.NewService(students, validate),
		billingSvc: billingSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
