package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/search"
)

func (h *JournalHandler) communityThings(c echo.Context) error {
	page, err := h.things.Community(c.Request().Context(), thingFilterFromQuery(c))
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, page)
}

// getCommunityThing serves a single thing to an optionally authenticated
// viewer. Visibility is enforced by the service, so shared things are
// reachable here too.
func (h *JournalHandler) getCommunityThing(c echo.Context) error {
	viewerID, _ := models.GetUserIDFromContext(c.Request().Context())
	thingID, err := parseIDParam(c)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}

	detail, err := h.things.Get(c.Request().Context(), viewerID, thingID)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *JournalHandler) communityMoods(c echo.Context) error {
	moods, err := h.things.CommunityMoods(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	if moods == nil {
		moods = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"moods": moods})
}

func (h *JournalHandler) searchCommunity(c echo.Context) error {
	if !h.index.Enabled() {
		return handleServiceError(c, search.ErrSearchDisabled, h.logger)
	}

	query := search.Query{
		Text: c.QueryParam("q"),
		Mood: c.QueryParam("mood"),
	}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil && page > 0 {
		query.Page = page
	}
	if perPage, err := strconv.Atoi(c.QueryParam("per_page")); err == nil && perPage > 0 && perPage <= 100 {
		query.PerPage = perPage
	}

	result, err := h.index.Search(c.Request().Context(), query)
	if err != nil {
		return handleServiceError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, result)
}
