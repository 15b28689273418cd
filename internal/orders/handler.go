package orders

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the order lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers order routes on the provided router. All routes
// require an authenticated caller; finer checks live in the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleListAll)
	r.Post("/", h.handleCheckout)
	r.Get("/mine", h.handleListMine)
	r.Get("/supplier", h.handleListForSupplier)
	r.Get("/user/{userID}", h.handleListByUser)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/cancel", h.handleCancel)
	r.Put("/{id}/status", h.handleUpdateStatus)
}

type checkoutRequest struct {
	AddressID int64 `json:"address_id" validate:"required,gt=0"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func identityOr401(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	ident, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
	}
	return ident, ok
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Checkout(r.Context(), ident, req.AddressID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("checkout completed",
		slog.Int64("user_id", ident.UserID),
		slog.Int("orders", len(created)))
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListAll(r.Context(), ident)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListMine(r.Context(), ident)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleListByUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	list, err := h.service.ListByUser(r.Context(), ident, userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleListForSupplier(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListForSupplier(r.Context(), ident)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	if err := h.service.Cancel(r.Context(), ident, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityOr401(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateStatus(r.Context(), ident, id, Status(req.Status)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
