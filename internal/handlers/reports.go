package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
)

func (a *api) registerReports(r *gin.Engine) {
	r.GET("/reports/dashboard", a.dashboard)
}

func (a *api) dashboard(c *gin.Context) {
	threshold := a.cfg.LowStockThreshold
	if raw := c.Query("low_stock_threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, apperrors.Invalid("low_stock_threshold", "must be an integer"))
			return
		}
		threshold = n
	}
	d, err := a.cfg.Reports.Build(c.Request.Context(), threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
