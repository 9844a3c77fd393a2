package trading

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/orders"
	"github.com/mesa-ops/mesa/internal/platform/httpx"
	"github.com/mesa-ops/mesa/internal/rbac"
	"github.com/mesa-ops/mesa/internal/shared"
)

// Handler wires the trading desk endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guards rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: guards}
}

// MountRoutes registers desk routes. Viewing the queue and acting on it
// are separate permissions so back-office roles can watch without
// touching.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermViewTrading))
		r.Get("/queue", h.Queue)
		r.Get("/in-flight", h.InFlight)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermViewTrading, rbac.PermExecuteOrder))
		r.Post("/orders/{id}/take", h.Take)
		r.Post("/orders/{id}/fill", h.Fill)
		r.Post("/orders/{id}/reject", h.Reject)
	})
}

type queueResponse struct {
	Orders     []orders.OrderWithClient `json:"orders"`
	Pagination shared.Pagination        `json:"pagination"`
}

type fillRequest struct {
	Fills []fillItem `json:"fills" validate:"required,min=1,dive"`
}

type fillItem struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	Price  float64   `json:"price" validate:"required,gt=0"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.service.Queue)
}

func (h *Handler) InFlight(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.service.InFlight)
}

type listFn func(ctx context.Context, page, perPage int) ([]orders.OrderWithClient, int, error)

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, list listFn) {
	page, perPage := pageParams(r)
	items, total, err := list(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list desk orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []orders.OrderWithClient{}
	}
	httpx.JSON(w, http.StatusOK, queueResponse{
		Orders:     items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Take(w http.ResponseWriter, r *http.Request) {
	identity, orderID, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.service.Take(r.Context(), orderID, identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(orders.StatusEnProceso)})
}

func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	identity, orderID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req fillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	prices := make(map[uuid.UUID]float64, len(req.Fills))
	for _, f := range req.Fills {
		prices[f.ItemID] = f.Price
	}
	if err := h.service.Fill(r.Context(), orderID, identity.UserID, prices); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(orders.StatusCompletada)})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, orderID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	if err := h.service.Reject(r.Context(), orderID, identity.UserID, req.Reason); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(orders.StatusRechazada)})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (shared.Identity, uuid.UUID, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return shared.Identity{}, uuid.Nil, false
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return shared.Identity{}, uuid.Nil, false
	}
	return identity, orderID, true
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}
