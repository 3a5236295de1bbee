package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vhasckel/kata-cart/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the engine's error taxonomy onto HTTP statuses:
// validation and business-rule failures are 400, not-found kinds are 404,
// anything else is a store failure and stays a generic 500.
func handleServiceError(w http.ResponseWriter, err error) {
	var belowMin *service.BelowMinimumError

	switch {
	case errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidProductID),
		errors.Is(err, service.ErrMissingProduct):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrCouponRequired):
		respondError(w, http.StatusBadRequest, "coupon_required", err.Error())
	case errors.Is(err, service.ErrCouponInvalid):
		respondError(w, http.StatusBadRequest, "coupon_invalid", err.Error())
	case errors.As(err, &belowMin):
		respondError(w, http.StatusBadRequest, "coupon_below_minimum", err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, service.ErrProductNotInCart):
		respondError(w, http.StatusNotFound, "product_not_in_cart", err.Error())
	default:
		log.Printf("store error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
