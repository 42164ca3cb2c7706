package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"thing-journal-server/internal/models"
)

func (h *JournalHandler) listPatterns(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	patterns, err := h.patterns.List(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, patterns)
}

func (h *JournalHandler) requestAnalysis(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	req, err := h.patterns.RequestAnalysis(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusAccepted, req)
}

func (h *JournalHandler) patternDashboard(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	dashboard, err := h.patterns.Dashboard(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *JournalHandler) patternNetwork(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	network, err := h.patterns.Network(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, network)
}
