package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"thing-journal-server/internal/auth"
	"thing-journal-server/internal/middleware"
	"thing-journal-server/internal/models"
	"thing-journal-server/internal/search"
	"thing-journal-server/internal/service"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// RequestValidator adapts go-playground/validator to echo's Validator
// interface.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// JournalHandler serves the HTTP API for the thing journal.
type JournalHandler struct {
	things   service.ThingService
	stories  service.StoryService
	sharing  service.SharingService
	groups   service.GroupService
	patterns service.PatternService
	index    search.Index
	verifier auth.TokenVerifier
	logger   *zap.Logger
}

// NewJournalHandler creates a JournalHandler.
func NewJournalHandler(
	things service.ThingService,
	stories service.StoryService,
	sharing service.SharingService,
	groups service.GroupService,
	patterns service.PatternService,
	index search.Index,
	verifier auth.TokenVerifier,
	logger *zap.Logger,
) *JournalHandler {
	return &JournalHandler{
		things:   things,
		stories:  stories,
		sharing:  sharing,
		groups:   groups,
		patterns: patterns,
		index:    index,
		verifier: verifier,
		logger:   logger.Named("JournalHandler"),
	}
}

// RegisterRoutes registers all journal routes on the echo instance.
func (h *JournalHandler) RegisterRoutes(e *echo.Echo) {
	authMiddleware := middleware.Auth(h.verifier, h.logger)
	optionalAuth := middleware.OptionalAuth(h.verifier, h.logger)

	e.GET("/health", h.health)

	things := e.Group("/things", authMiddleware)
	{
		things.POST("", h.createThing)
		things.GET("", h.listThings)
		things.POST("/capture", h.quickCapture)
		things.POST("/voice", h.recordVoice)
		things.GET("/:id", h.getThing)
		things.PUT("/:id", h.updateThing)
		things.DELETE("/:id", h.deleteThing)

		things.POST("/:id/toggle-privacy", h.togglePrivacy)
		things.POST("/:id/share", h.shareThing)
		things.GET("/:id/share-history", h.shareHistory)

		things.GET("/:id/story-eligibility", h.storyEligibility)
		things.POST("/:id/promote", h.promoteThing)
	}

	stories := e.Group("/stories", authMiddleware)
	{
		stories.GET("", h.listStories)
		stories.GET("/:id", h.getStory)
		stories.PUT("/:id", h.updateStory)
		stories.DELETE("/:id", h.deleteStory)
		stories.PUT("/:id/order", h.reorderStory)
		stories.POST("/:id/play", h.playStory)
	}

	groups := e.Group("/groups", authMiddleware)
	{
		groups.POST("", h.createGroup)
		groups.GET("", h.listGroups)
		groups.POST("/:id/invite", h.inviteToGroup)
		groups.GET("/:id/things", h.groupThings)
	}

	patterns := e.Group("/patterns", authMiddleware)
	{
		patterns.GET("", h.listPatterns)
		patterns.POST("/analyze", h.requestAnalysis)
		patterns.GET("/dashboard", h.patternDashboard)
		patterns.GET("/network", h.patternNetwork)
	}

	community := e.Group("/community", optionalAuth)
	{
		community.GET("/things", h.communityThings)
		community.GET("/things/:id", h.getCommunityThing)
		community.GET("/moods", h.communityMoods)
		community.GET("/search", h.searchCommunity)
	}
}

func (h *JournalHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleServiceError maps service errors onto HTTP responses.
func handleServiceError(c echo.Context, err error, logger *zap.Logger) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Access denied"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, models.ErrNotMember):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrAlreadyMember):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrNotEligible):
		statusCode = http.StatusUnprocessableEntity
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrNotEnoughThings):
		statusCode = http.StatusUnprocessableEntity
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, search.ErrSearchDisabled):
		statusCode = http.StatusServiceUnavailable
		apiErr = APIError{Message: "Search is not available"}
	case errors.Is(err, models.ErrInvalidPrivacy),
		errors.Is(err, models.ErrImageSourceInvalid),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	return c.JSON(statusCode, apiErr)
}
