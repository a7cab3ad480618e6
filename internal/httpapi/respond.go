// Package httpapi holds the JSON response helpers and the single place
// where domain errors become HTTP statuses.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	cartdomain "github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
	catalogapp "github.com/leavalz/Natural-Triade-Shop/internal/catalog/application"
	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	paymentdomain "github.com/leavalz/Natural-Triade-Shop/internal/payment/domain"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// Error maps a domain error onto a status code and a JSON body. Not-found
// and wrong-owner deliberately share one shape, so a caller cannot probe for
// the existence of other users' entities.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		stockErr      *catalogdomain.InsufficientStockError
		transitionErr *orderdomain.InvalidTransitionError
		processorErr  *paymentdomain.ProcessorError
	)

	switch {
	case errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, cartdomain.ErrLineNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound):
		JSON(w, http.StatusNotFound, errorBody{Error: err.Error()})

	case errors.As(err, &stockErr),
		errors.As(err, &transitionErr),
		errors.Is(err, catalogdomain.ErrProductUnavailable),
		errors.Is(err, catalogdomain.ErrInvalidCategory),
		errors.Is(err, catalogapp.ErrInvalidProduct),
		errors.Is(err, cartdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrEmptyCart),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, paymentdomain.ErrInvalidOrderState),
		errors.Is(err, paymentdomain.ErrInvalidSignature):
		JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})

	case errors.As(err, &processorErr):
		log.Error("payment processor failure", "err", err)
		JSON(w, http.StatusBadGateway, errorBody{Error: "payment processor unavailable"})

	default:
		log.Error("request failed", "err", err)
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
