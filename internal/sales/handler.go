package sales

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/platform/httpx"
	"github.com/jms-erp/jms/internal/shared"
)

// IdempotencyHeader carries the client generated key of a sale submission.
const IdempotencyHeader = "Idempotency-Key"

// Handler manages sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{invoiceNumber}", h.get)
}

type saleItemRequest struct {
	ProductID           uuid.UUID       `json:"productId"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity" validate:"gte=0"`
	SellingWeight       decimal.Decimal `json:"sellingWeight"`
	SellingPricePerGram decimal.Decimal `json:"sellingPricePerGram"`
	SellingPurity       string          `json:"sellingPurity"`
	MakingChargePerGram decimal.Decimal `json:"makingChargePerGram"`
}

type createSaleRequest struct {
	CustomerName       string              `json:"customerName"`
	CustomerAddress    string              `json:"customerAddress"`
	CustomerMobile     string              `json:"customerMobile"`
	Items              []saleItemRequest   `json:"items" validate:"dive"`
	Subtotal           decimal.NullDecimal `json:"subtotal"`
	TotalMakingCharges decimal.NullDecimal `json:"totalMakingCharges"`
	TotalAmount        decimal.NullDecimal `json:"totalAmount"`
	BalanceDue         decimal.NullDecimal `json:"balanceDue"`
	AdvancePayment     decimal.Decimal     `json:"advancePayment"`
	Discount           decimal.Decimal     `json:"discount"`
	OldGoldWeight      decimal.Decimal     `json:"oldGoldWeight"`
}

func (req createSaleRequest) toInput(key string) CreateSaleInput {
	items := make([]ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = ItemInput(item)
	}
	return CreateSaleInput{
		Customer: Customer{
			Name:    req.CustomerName,
			Address: req.CustomerAddress,
			Mobile:  req.CustomerMobile,
		},
		Items: items,
		Payment: PaymentInput{
			AdvancePayment:     req.AdvancePayment,
			Discount:           req.Discount,
			OldGoldWeight:      req.OldGoldWeight,
			Subtotal:           req.Subtotal,
			TotalMakingCharges: req.TotalMakingCharges,
			TotalAmount:        req.TotalAmount,
			BalanceDue:         req.BalanceDue,
		},
		IdempotencyKey: key,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := httpx.DecodeAndValidate(r, &req, "Invalid sale data."); err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	sale, err := h.service.CreateSale(r.Context(), req.toInput(r.Header.Get(IdempotencyHeader)))
	if err != nil {
		httpx.RespondWriteError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}
	sales, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	number, err := InvoiceNumberParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sale, err := h.service.GetSale(r.Context(), number)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

// InvoiceNumberParam parses the {invoiceNumber} route parameter.
func InvoiceNumberParam(r *http.Request) (int64, error) {
	number, err := strconv.ParseInt(chi.URLParam(r, "invoiceNumber"), 10, 64)
	if err != nil || number <= 0 {
		return 0, shared.Validation("Invalid invoice number.")
	}
	return number, nil
}
