package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
	"thing-journal-server/internal/service"
)

// maxVoiceUploadBytes caps voice recording uploads at 25 MB, matching the
// transcription API limit.
const maxVoiceUploadBytes = 25 << 20

func (h *JournalHandler) createThing(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	var req CreateThingRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := service.CreateThingInput{
		Title:         req.Title,
		Description:   req.Description,
		Privacy:       models.PrivacyLevel(req.Privacy),
		Mood:          req.Mood,
		LucidityLevel: req.LucidityLevel,
		Tags:          req.Tags,
	}
	if req.ThingDate != nil {
		input.ThingDate = *req.ThingDate
	}
	for _, img := range req.Images {
		input.Images = append(input.Images, service.ImageInput{
			ObjectKey: img.ObjectKey,
			ImageURL:  img.ImageURL,
			Caption:   img.Caption,
			Position:  img.Position,
		})
	}

	thing, err := h.things.Create(c.Request().Context(), userID, input)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusCreated, thing)
}

func (h *JournalHandler) listThings(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	page, err := h.things.List(c.Request().Context(), userID, thingFilterFromQuery(c))
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *JournalHandler) quickCapture(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	var req QuickCaptureRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	thing, err := h.things.QuickCapture(c.Request().Context(), userID, req.ThingID, req.Content)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusCreated, thing)
}

func (h *JournalHandler) recordVoice(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return handleServiceError(c, fmt.Errorf("%w: missing audio file", models.ErrBadRequest), h.logger)
	}
	if file.Size > maxVoiceUploadBytes {
		return handleServiceError(c, fmt.Errorf("%w: audio file is too large", models.ErrBadRequest), h.logger)
	}

	src, err := file.Open()
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	defer src.Close()

	audio, err := io.ReadAll(io.LimitReader(src, maxVoiceUploadBytes))
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	thing, err := h.things.RecordVoice(
		c.Request().Context(),
		userID,
		file.Filename,
		audio,
		c.FormValue("title"),
		c.FormValue("mood"),
	)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusCreated, thing)
}

func (h *JournalHandler) getThing(c echo.Context) error {
	userID, _ := models.GetUserIDFromContext(c.Request().Context())
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	detail, err := h.things.Get(c.Request().Context(), userID, thingID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *JournalHandler) updateThing(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	var req UpdateThingRequest
	if err := c.Bind(&req); err != nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error()), h.logger)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := service.UpdateThingInput{
		Title:         req.Title,
		Description:   req.Description,
		Privacy:       models.PrivacyLevel(req.Privacy),
		Mood:          req.Mood,
		LucidityLevel: req.LucidityLevel,
		Tags:          req.Tags,
	}
	if req.ThingDate != nil {
		input.ThingDate = *req.ThingDate
	}

	thing, err := h.things.Update(c.Request().Context(), userID, thingID, input)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, thing)
}

func (h *JournalHandler) deleteThing(c echo.Context) error {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	if err := h.things.Delete(c.Request().Context(), userID, thingID); err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id format", models.ErrBadRequest)
	}
	return id, nil
}

func thingFilterFromQuery(c echo.Context) repository.ThingFilter {
	filter := repository.ThingFilter{
		Search:  c.QueryParam("search"),
		Privacy: models.PrivacyLevel(c.QueryParam("privacy")),
		Mood:    c.QueryParam("mood"),
		Limit:   20,
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 && limit <= 100 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}
