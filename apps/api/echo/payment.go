package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	metricsvc "github.com/trezcool/malipo/services/metrics"
)

type paymentApi struct {
	svc     *billing.Service
	metrics *metricsvc.Metrics
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service, metrics *metricsvc.Metrics) {
	api := paymentApi{svc: svc, metrics: metrics}

	pg := g.Group("/payments", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/invoice/:invoiceId", api.queryInvoice)
	pg.DELETE("/:id", api.destroy)
}

type (
	PaymentListResponse struct {
		Payments   []billing.PaymentRow `json:"payments"`
		Pagination *core.PageInfo       `json:"pagination,omitempty"`
	}

	paymentQuery struct {
		billing.PaymentFilter
		core.Pagination
	}
)

// Handlers

func (api *paymentApi) create(ctx echo.Context) error {
	var data billing.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}

	res, err := api.svc.RecordPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	api.metrics.PaymentRecorded()
	return ctx.JSON(http.StatusCreated, res)
}

func (api *paymentApi) query(ctx echo.Context) error {
	var q paymentQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to payment query")
	}

	rows, page, err := api.svc.QueryPayments(ctx.Request().Context(), q.PaymentFilter, q.Pagination)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return ctx.JSON(http.StatusOK, PaymentListResponse{Payments: rows, Pagination: &page})
}

func (api *paymentApi) queryInvoice(ctx echo.Context) error {
	invoiceID, err := idParam(ctx, "invoiceId")
	if err != nil {
		return err
	}
	rows, err := api.svc.InvoicePayments(ctx.Request().Context(), invoiceID)
	if err != nil {
		return errors.Wrap(err, "listing invoice payments")
	}
	return ctx.JSON(http.StatusOK, PaymentListResponse{Payments: rows})
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := api.svc.DeletePayment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	api.metrics.PaymentDeleted()
	return ctx.JSON(http.StatusOK, res)
}
