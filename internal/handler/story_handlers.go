package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/service"
)

func (h *JournalHandler) storyEligibility(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	eligible, err := h.stories.Eligible(c.Request().Context(), userID, thingID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, map[string]bool{"eligible": eligible})
}

func (h *JournalHandler) promoteThing(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	var req PromoteThingRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	detail, err := h.stories.Promote(c.Request().Context(), userID, thingID, req.Title)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *JournalHandler) listStories(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	stories, err := h.stories.List(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(http.StatusOK, stories)
}

func (h *JournalHandler) getStory(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	storyID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	detail, err := h.stories.Get(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *JournalHandler) updateStory(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	storyID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	var req UpdateStoryRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	story, err := h.stories.Update(c.Request().Context(), userID, storyID, service.UpdateStoryInput{
		Title:       req.Title,
		Description: req.Description,
		Privacy:     models.PrivacyLevel(req.Privacy),
	})
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, story)
}

func (h *JournalHandler) deleteStory(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	storyID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	if err := h.stories.Delete(c.Request().Context(), userID, storyID); err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *JournalHandler) reorderStory(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	storyID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	var req ReorderStoryRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.stories.Reorder(c.Request().Context(), userID, storyID, req.ThingIDs); err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *JournalHandler) playStory(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	storyID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	chunks, err := h.stories.Play(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"chunks": chunks})
}
