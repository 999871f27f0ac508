package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/service"
	"github.com/andresuchdata/salesdash/internal/upstream"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) parseParams(c *gin.Context) domain.ReportParams {
	params := domain.ReportParams{
		Scope:    strings.TrimSpace(c.DefaultQuery("scope", domain.ScopeOverview)),
		DateFrom: strings.TrimSpace(c.Query("date_from")),
		DateTo:   strings.TrimSpace(c.Query("date_to")),
	}
	if debug, err := strconv.ParseBool(c.DefaultQuery("debug", "false")); err == nil {
		params.Diagnostics = debug
	}
	return params
}

// GetReport builds the manager dashboard for one scope and date window.
func (h *ReportHandler) GetReport(c *gin.Context) {
	params := h.parseParams(c)

	report, err := h.service.BuildReport(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetDivisions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"divisions": h.service.Divisions()})
}

func (h *ReportHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownScope), errors.Is(err, service.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report parameters", "details": err.Error()})
	default:
		if fe, ok := upstream.AsFetchError(err); ok {
			log.Error().Err(err).Str("collection", fe.Collection).Int("upstream_status", fe.StatusCode).Msg("report: upstream fetch failed")
			c.JSON(http.StatusBadGateway, gin.H{
				"error":           "failed to load data from upstream",
				"collection":      fe.Collection,
				"upstream_status": fe.StatusCode,
				"details":         fe.Error(),
			})
			return
		}
		log.Error().Err(err).Msg("report: build failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report", "details": err.Error()})
	}
}
