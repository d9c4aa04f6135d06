package di

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/malipo/apps/api/echo"
	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/core/student"
	"github.com/trezcool/malipo/core/user"
	logsvc "github.com/trezcool/malipo/services/logger"
	metricsvc "github.com/trezcool/malipo/services/metrics"
	schedulersvc "github.com/trezcool/malipo/services/scheduler"
	"github.com/trezcool/malipo/storage/database"
	sqlxrepos "github.com/trezcool/malipo/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	DB         *sqlx.DB
	UserSvc    *user.Service
	BillingSvc *billing.Service
	Metrics    *metricsvc.Metrics
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewConsoleLogger(os.Stdout, logsvc.ComponentAPI, conf.Debug), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewConsoleLogger(os.Stdout, logsvc.ComponentDB, conf.Debug), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, conf.Database.Engine); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newMetrics(conf *core.Config) *metricsvc.Metrics {
	return metricsvc.New(strings.ToLower(conf.AppName))
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		DB:         p.DB,
		UserSvc:    p.UserSvc,
		BillingSvc: p.BillingSvc,
		Metrics:    p.Metrics,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository))))
	must(c.Provide(sqlxrepos.NewInvoiceRepository, dig.As(new(billing.InvoiceRepository))))
	must(c.Provide(sqlxrepos.NewPaymentRepository, dig.As(new(billing.PaymentRepository))))
	must(c.Provide(sqlxrepos.NewFeeRepository, dig.As(new(billing.FeeRepository))))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(billing.NewService))
	must(c.Provide(newMetrics))
	must(c.Provide(schedulersvc.New))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
