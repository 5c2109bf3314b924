package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/platform/httpx"
	"github.com/jms-erp/jms/internal/shared"
)

// Handler wires HTTP endpoints for the product catalogue.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
	r.Post("/{id}/restock", h.restock)
}

type createProductRequest struct {
	Name         string              `json:"name" validate:"required"`
	Category     string              `json:"category" validate:"required"`
	Type         string              `json:"type" validate:"omitempty,oneof=standard bulk_weight"`
	Stock        int                 `json:"stock" validate:"gte=0"`
	Weight       decimal.Decimal     `json:"weight"`
	Purity       decimal.NullDecimal `json:"purity"`
	PricePerGram decimal.NullDecimal `json:"pricePerGram"`
	UnitPrice    decimal.NullDecimal `json:"unitPrice"`
}

type updateProductRequest struct {
	Name         *string             `json:"name"`
	Category     *string             `json:"category"`
	Purity       decimal.NullDecimal `json:"purity"`
	PricePerGram decimal.NullDecimal `json:"pricePerGram"`
	UnitPrice    decimal.NullDecimal `json:"unitPrice"`
}

type restockRequest struct {
	Quantity int             `json:"quantity" validate:"gte=0"`
	Weight   decimal.Decimal `json:"weight"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListActive(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeAndValidate(r, &req, "Invalid product data."); err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), CreateProductInput{
		Name:         req.Name,
		Category:     req.Category,
		Type:         ProductType(req.Type),
		Stock:        req.Stock,
		Weight:       req.Weight,
		Purity:       req.Purity,
		PricePerGram: req.PricePerGram,
		UnitPrice:    req.UnitPrice,
	})
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeAndValidate(r, &req, "Invalid product data."); err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, UpdateProductInput(req))
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	var req restockRequest
	if err := httpx.DecodeAndValidate(r, &req, "Invalid restock data."); err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	product, err := h.service.Restock(r.Context(), id, RestockInput(req))
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, shared.Validation("Invalid product id.")
	}
	return id, nil
}
