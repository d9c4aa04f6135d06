package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/malipo/core"
)

const dbPingTimeout = 2 * time.Second

type HealthResponse struct {
	Status string `json:"status"`
	Build  string `json:"build,omitempty"`
}

func registerHealthAPI(g *echo.Group, db core.DB, conf *core.Config) {
	hg := g.Group("/health")
	hg.GET("", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok", Build: conf.Build})
	})
	hg.GET("/db", func(ctx echo.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), dbPingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			ctx.Logger().Errorf("pinging database: %v", err)
			return ctx.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		}
		return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok"})
	})
}
