package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
)

type feeApi struct {
	svc *billing.Service
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service) {
	api := feeApi{svc: svc}

	fg := g.Group("/fees", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.GET("/summary", api.summary)
	fg.GET("/summary/:studentId", api.studentSummary)
	fg.GET("/:id", api.retrieve)
}

type (
	FeeListResponse struct {
		Data       []billing.Fee `json:"data"`
		Pagination core.PageInfo `json:"pagination"`
	}

	feeQuery struct {
		billing.FeeFilter
		core.Pagination
	}
)

// Handlers

func (api *feeApi) query(ctx echo.Context) error {
	var q feeQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to fee query")
	}

	fees, page, err := api.svc.QueryFees(ctx.Request().Context(), q.FeeFilter, q.Pagination)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	return ctx.JSON(http.StatusOK, FeeListResponse{Data: fees, Pagination: page})
}

func (api *feeApi) create(ctx echo.Context) error {
	var data billing.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}

	fee, err := api.svc.CreateFee(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fee")
	}
	return ctx.JSON(http.StatusCreated, fee)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	fee, err := api.svc.GetFee(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting fee")
	}
	return ctx.JSON(http.StatusOK, fee)
}

func (api *feeApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing fees")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *feeApi) studentSummary(ctx echo.Context) error {
	studentID, err := idParam(ctx, "studentId")
	if err != nil {
		return err
	}
	sum, err := api.svc.StudentSummary(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "summarizing student fees")
	}
	return ctx.JSON(http.StatusOK, sum)
}
