package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vhasckel/kata-cart/internal/domain"
)

// CartEngine is the slice of the cart service the handlers consume.
type CartEngine interface {
	AddProduct(ctx context.Context, userID, productID int64, quantity int) ([]domain.CartLine, error)
	RemoveProduct(ctx context.Context, userID, productID int64) ([]domain.CartLine, error)
	ChangeQuantity(ctx context.Context, userID, productID int64, quantity int) ([]domain.CartLine, error)
	ApplyCoupon(ctx context.Context, userID int64, code string) (*domain.CartSummary, error)
	GetCart(ctx context.Context, userID int64) (*domain.CartView, error)
	GetSummary(ctx context.Context, userID int64) (*domain.CartSummary, error)
}

type CartHandler struct {
	engine  CartEngine
	timeout time.Duration
}

func NewCartHandler(engine CartEngine, timeout time.Duration) *CartHandler {
	return &CartHandler{
		engine:  engine,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type CartLineDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

type CartResponseDTO struct {
	Message string        `json:"message,omitempty"`
	Items   []CartLineDTO `json:"items"`
	Total   float64       `json:"total"`
}

type SummaryDTO struct {
	Subtotal float64 `json:"subtotal"`
	Coupon   string  `json:"coupon"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

type SummaryResponseDTO struct {
	Message string     `json:"message,omitempty"`
	Summary SummaryDTO `json:"summary"`
}

// Cents become decimals here and nowhere earlier.
func convertLines(lines []domain.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, len(lines))
	for i, l := range lines {
		out[i] = CartLineDTO{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    domain.CentsToDecimal(l.UnitPriceCents),
			Category: l.Category,
			Quantity: l.Quantity,
			Total:    domain.CentsToDecimal(l.TotalPriceCents),
		}
	}
	return out
}

func convertSummary(s domain.CartSummary) SummaryDTO {
	coupon := "none"
	if s.DiscountCents > 0 {
		coupon = "applied"
	}
	return SummaryDTO{
		Subtotal: domain.CentsToDecimal(s.SubtotalCents),
		Coupon:   coupon,
		Discount: domain.CentsToDecimal(s.DiscountCents),
		Shipping: domain.CentsToDecimal(s.ShippingCents),
		Total:    domain.CentsToDecimal(s.TotalCents),
	}
}

func linesTotal(lines []domain.CartLine) float64 {
	var cents int64
	for _, l := range lines {
		cents += l.TotalPriceCents
	}
	return domain.CentsToDecimal(cents)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	view, err := h.engine.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items: convertLines(view.Lines),
		Total: domain.CentsToDecimal(view.Summary.TotalCents),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines, err := h.engine.AddProduct(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CartResponseDTO{
		Message: fmt.Sprintf("product %d added to cart", req.ProductID),
		Items:   convertLines(lines),
		Total:   linesTotal(lines),
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines, err := h.engine.ChangeQuantity(ctx, userID, productID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items: convertLines(lines),
		Total: linesTotal(lines),
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	lines, err := h.engine.RemoveProduct(ctx, userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Message: fmt.Sprintf("product %d removed from cart", productID),
		Items:   convertLines(lines),
		Total:   linesTotal(lines),
	})
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	summary, err := h.engine.ApplyCoupon(ctx, userID, req.Code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SummaryResponseDTO{
		Message: fmt.Sprintf("coupon %q applied", req.Code),
		Summary: convertSummary(*summary),
	})
}

func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	summary, err := h.engine.GetSummary(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SummaryResponseDTO{
		Summary: convertSummary(*summary),
	})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
