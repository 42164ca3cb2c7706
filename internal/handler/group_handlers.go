package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/service"
)

func (h *JournalHandler) createGroup(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	var req CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	group, err := h.groups.Create(c.Request().Context(), userID, service.CreateGroupInput{
		Name:             req.Name,
		Description:      req.Description,
		IsPrivate:        req.IsPrivate,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusCreated, group)
}

func (h *JournalHandler) listGroups(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	overview, err := h.groups.Overview(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *JournalHandler) inviteToGroup(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	groupID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.groups.Invite(c.Request().Context(), userID, groupID, req.UserIDs)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *JournalHandler) groupThings(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	groupID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	page, err := h.groups.Things(c.Request().Context(), userID, groupID, thingFilterFromQuery(c))
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, page)
}
