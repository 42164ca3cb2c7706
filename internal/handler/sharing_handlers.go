package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"thing-journal-server/internal/models"
)

func (h *JournalHandler) togglePrivacy(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	thing, err := h.sharing.TogglePrivacy(c.Request().Context(), userID, thingID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, thing)
}

func (h *JournalHandler) shareThing(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	var req ShareThingRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	thing, err := h.sharing.Share(
		c.Request().Context(),
		userID,
		thingID,
		models.PrivacyLevel(req.Privacy),
		req.SharedUserIDs,
		req.SharedGroupIDs,
	)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, thing)
}

func (h *JournalHandler) shareHistory(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	history, err := h.sharing.History(c.Request().Context(), userID, thingID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	if history == nil {
		history = []models.ShareHistory{}
	}
	return c.JSON(http.StatusOK, history)
}
