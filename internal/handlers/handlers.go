package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"schedcal/internal/cache"
	"schedcal/internal/config"
	"schedcal/internal/repository"
	"schedcal/internal/service"
)

// Pinger is the slice of the database pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	db     Pinger
	users  *service.UserService
	events *service.EventService
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db Pinger,
	users repository.Users,
	events repository.Events,
	eventCache *cache.EventCache,
) HandlerSet {
	return HandlerSet{
		log:    log,
		cfg:    cfg,
		db:     db,
		users:  service.NewUserService(users, eventCache, log),
		events: service.NewEventService(events, users, eventCache, log),
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/", h.Home)
	engine.NoRoute(h.RouteNotFound)

	api := engine.Group("/api")
	api.GET("/health", h.Health)

	api.POST("/register", h.RegisterUser)
	api.POST("/login", h.Login)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.GET("/users/:id/events", h.ListUserEvents)

	api.GET("/events", h.ListEvents)
	api.GET("/events/range/:start/:end", h.ListEventsByRange)
	api.GET("/events/:id", h.GetEvent)
	api.POST("/events", h.CreateEvent)
	api.PUT("/events/:id", h.UpdateEvent)
	api.DELETE("/events/:id", h.DeleteEvent)
}

var apiRoutes = []string{
	"GET /",
	"GET /api/health",
	"POST /api/register",
	"POST /api/login",
	"GET /api/users",
	"GET /api/users/:id",
	"PUT /api/users/:id",
	"DELETE /api/users/:id",
	"GET /api/users/:id/events",
	"GET /api/events",
	"GET /api/events/:id",
	"POST /api/events",
	"PUT /api/events/:id",
	"DELETE /api/events/:id",
	"GET /api/events/range/:start/:end",
}

func (h HandlerSet) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "User Registration & Calendar API Server",
		"status":  "Running",
		"endpoints": gin.H{
			"register":             "POST /api/register",
			"login":                "POST /api/login",
			"getAllUsers":          "GET /api/users",
			"getUserById":          "GET /api/users/:id",
			"updateUser":           "PUT /api/users/:id",
			"deleteUser":           "DELETE /api/users/:id",
			"getUserEvents":        "GET /api/users/:id/events",
			"getAllEvents":         "GET /api/events",
			"getEventById":         "GET /api/events/:id",
			"createEvent":          "POST /api/events",
			"updateEvent":          "PUT /api/events/:id",
			"deleteEvent":          "DELETE /api/events/:id",
			"getEventsByDateRange": "GET /api/events/range/:start/:end",
			"healthCheck":          "GET /api/health",
		},
	})
}

func (h HandlerSet) RouteNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":           "Route not found",
		"message":         "Cannot " + c.Request.Method + " " + c.Request.URL.Path,
		"availableRoutes": apiRoutes,
	})
}

// respondError maps service and store failures onto the contractual status
// codes. Anything unrecognized becomes a 500 with the generic fallback
// message; the detail stays in the server log only.
func (h HandlerSet) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrShortPassword),
		errors.Is(err, service.ErrMissingLogin),
		errors.Is(err, service.ErrEmptyUserPatch),
		errors.Is(err, service.ErrMissingEventFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": capitalized(err.Error())})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, repository.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
	case errors.Is(err, repository.ErrUnknownOwner):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
	default:
		h.log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// pathID parses the :id segment. Zero and negative values parse fine and
// fall through to the store's not-found answer; only a non-numeric segment
// is a client error.
func pathID(c *gin.Context, message string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return 0, false
	}
	return id, true
}

func capitalized(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
