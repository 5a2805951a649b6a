package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/services"
	"github.com/tbourn/tapeat-bot/internal/utils"
)

// Catalog is the read side of the menu.
type Catalog interface {
	Restaurants(ctx context.Context) ([]domain.Restaurant, error)
	Menu(ctx context.Context, restaurantID uint) (*domain.Restaurant, []domain.MenuItem, error)
}

// Backend answers health and aggregate queries.
type Backend interface {
	AggregateStats(ctx context.Context) (domain.Stats, error)
	Ping(ctx context.Context) error
}

// Handlers serves the ops endpoints.
type Handlers struct {
	catalog Catalog
	backend Backend

	// Service is reported by /health.
	Service string
	// HealthTimeout bounds the database ping. Defaults to 2s.
	HealthTimeout time.Duration
}

// New returns Handlers bound to the catalog and backend.
func New(catalog Catalog, backend Backend) *Handlers {
	return &Handlers{catalog: catalog, backend: backend, Service: "tap-eat-bot", HealthTimeout: 2 * time.Second}
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"tap-eat-bot"`
}

// MenuResponse is a restaurant with its available items.
type MenuResponse struct {
	Restaurant domain.Restaurant `json:"restaurant"`
	Items      []domain.MenuItem `json:"items"`
}

// Index is the plain-text liveness banner with the number of known users.
// It is mounted at the root, outside the documented API.
func (h *Handlers) Index(c *gin.Context) {
	st, err := h.backend.AggregateStats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not count users")
		return
	}
	c.String(http.StatusOK, fmt.Sprintf("🤖 TAP&EAT Bot is running! Users: %d", st.Users))
}

// Health reports healthy when the database answers a ping, 503 otherwise.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.HealthTimeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Service: h.Service})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: h.Service})
}

// Stats godoc
// @ID          stats
// @Summary     Aggregate totals
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  domain.Stats
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	st, err := h.backend.AggregateStats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load stats")
		return
	}
	c.JSON(http.StatusOK, st)
}

// Restaurants godoc
// @ID          listRestaurants
// @Summary     List active restaurants
// @Tags        Catalog
// @Produce     json
// @Success     200  {array}   domain.Restaurant
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /restaurants [get]
func (h *Handlers) Restaurants(c *gin.Context) {
	rs, err := h.catalog.Restaurants(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list restaurants")
		return
	}
	c.JSON(http.StatusOK, rs)
}

// Menu godoc
// @ID          restaurantMenu
// @Summary     A restaurant's available items
// @Tags        Catalog
// @Produce     json
// @Param       id   path      int  true  "Restaurant ID"  minimum(1)
// @Success     200  {object}  handlers.MenuResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /restaurants/{id}/menu [get]
func (h *Handlers) Menu(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return
	}
	r, items, err := h.catalog.Menu(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrRestaurantNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "restaurant not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load menu")
		return
	}
	if items == nil {
		items = []domain.MenuItem{}
	}
	c.JSON(http.StatusOK, MenuResponse{Restaurant: *r, Items: items})
}
