package debt

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/platform/httpx"
	"github.com/jms-erp/jms/internal/sales"
	"github.com/jms-erp/jms/internal/shared"
)

// Handler wires HTTP endpoints for the debt ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs debt handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /debt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPending)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/pay", h.pay)
}

// MountSaleRoutes registers debt routes nested under /sales.
func (h *Handler) MountSaleRoutes(r chi.Router) {
	r.Post("/{invoiceNumber}/debt", h.createFromSale)
}

type createDebtRequest struct {
	CustomerName   string          `json:"customerName"`
	CustomerMobile string          `json:"customerMobile"`
	InitialAmount  decimal.Decimal `json:"initialAmount"`
	DueDate        string          `json:"dueDate"`
}

type paymentRequest struct {
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	Method        string          `json:"method" validate:"omitempty,oneof=Cash UPI Card BankTransfer"`
}

type fromSaleRequest struct {
	DueDate string `json:"dueDate"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createDebtRequest
	if err := httpx.DecodeAndValidate(r, &req, ""); err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	d, err := h.service.CreateDebt(r.Context(), CreateDebtInput{
		CustomerName:   req.CustomerName,
		CustomerMobile: req.CustomerMobile,
		InitialAmount:  req.InitialAmount,
		DueDate:        due,
	})
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondWriteError(w, h.logger, ErrDebtNotFound)
		return
	}
	var req paymentRequest
	if err := httpx.DecodeAndValidate(r, &req, ""); err != nil {
		if shared.KindOf(err) == shared.KindValidation && !strings.Contains(err.Error(), "Method") {
			err = ErrInvalidPayment
		}
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	d, err := h.service.ApplyPayment(r.Context(), id, PaymentInput{Amount: req.PaymentAmount, Method: Method(req.Method)})
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) createFromSale(w http.ResponseWriter, r *http.Request) {
	number, err := sales.InvoiceNumberParam(r)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	var req fromSaleRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req, ""); err != nil {
			httpx.RespondWriteError(w, h.logger, err)
			return
		}
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	d, err := h.service.CreateFromSale(r.Context(), number, due)
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, ErrDebtNotFound)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	debts, err := h.service.ListPending(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, debts)
}

// parseDueDate accepts a calendar date or an RFC 3339 timestamp. Empty means none.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, shared.Validation("Invalid due date.")
}
