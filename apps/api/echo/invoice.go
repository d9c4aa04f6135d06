package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	metricsvc "github.com/trezcool/malipo/services/metrics"
)

type invoiceApi struct {
	svc     *billing.Service
	metrics *metricsvc.Metrics
}

func registerInvoiceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service, metrics *metricsvc.Metrics) {
	api := invoiceApi{svc: svc, metrics: metrics}

	ig := g.Group("/invoices", jwt)
	ig.POST("", api.create)
	ig.GET("", api.query)
	ig.POST("/batch", api.createBatch)
	ig.POST("/update-overdue", api.markOverdue)
	ig.GET("/:id", api.retrieve)
	ig.PATCH("/:id/status", api.updateStatus)
	ig.DELETE("/:id", api.destroy)
}

type (
	InvoiceCreatedResponse struct {
		InvoiceID     int64  `json:"invoiceId"`
		InvoiceNumber string `json:"invoiceNumber"`
	}

	BatchCreatedResponse struct {
		Created []billing.BatchResult `json:"created"`
	}

	InvoiceListResponse struct {
		Invoices   []billing.InvoiceRow `json:"invoices"`
		Pagination core.PageInfo        `json:"pagination"`
	}

	OverdueResponse struct {
		Success bool  `json:"success"`
		Updated int64 `json:"updated"`
	}

	invoiceQuery struct {
		billing.InvoiceFilter
		core.Pagination
	}
)

// Handlers

func (api *invoiceApi) create(ctx echo.Context) error {
	var data billing.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}

	inv, err := api.svc.CreateInvoice(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	api.metrics.InvoicesCreated(1)
	return ctx.JSON(http.StatusCreated, InvoiceCreatedResponse{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber})
}

func (api *invoiceApi) createBatch(ctx echo.Context) error {
	var data billing.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}

	created, err := api.svc.CreateBatch(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice batch")
	}
	api.metrics.InvoicesCreated(len(created))
	return ctx.JSON(http.StatusOK, BatchCreatedResponse{Created: created})
}

func (api *invoiceApi) query(ctx echo.Context) error {
	var q invoiceQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to invoice query")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rows, page, err := api.svc.QueryInvoices(ctx.Request().Context(), q.InvoiceFilter, ordering.Ordering, q.Pagination)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	return ctx.JSON(http.StatusOK, InvoiceListResponse{Invoices: rows, Pagination: page})
}

func (api *invoiceApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	detail, err := api.svc.GetInvoice(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting invoice")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *invoiceApi) updateStatus(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data billing.UpdateInvoiceStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInvoiceStatus")
	}

	row, err := api.svc.UpdateInvoiceStatus(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating invoice status")
	}
	return ctx.JSON(http.StatusOK, row)
}

func (api *invoiceApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteInvoice(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting invoice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *invoiceApi) markOverdue(ctx echo.Context) error {
	n, err := api.svc.MarkOverdue(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "marking overdue invoices")
	}
	api.metrics.OverdueMarked(n)
	return ctx.JSON(http.StatusOK, OverdueResponse{Success: true, Updated: n})
}
