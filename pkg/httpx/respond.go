// Package httpx maps ledger results onto the uniform JSON envelope the
// consumer layer branches on: {"success": bool, "error": "...", <entity>: {}}.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JNAMx03/OutOfStock/internal/ledger"
)

// OK writes a success envelope. Extra entries are merged in alongside
// "success", so handlers pass {"product": p} and the like.
func OK(w http.ResponseWriter, status int, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	write(w, status, body)
}

// Fail writes a business-rule failure envelope.
func Fail(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	body := map[string]any{"success": false, "error": msg}
	for k, v := range extra {
		body[k] = v
	}
	write(w, status, body)
}

// Error routes a service error: business-rule failures become typed 4xx
// envelopes, anything else is an internal failure and becomes a plain 500.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		validation *ledger.ValidationError
		notFound   *ledger.NotFoundError
		negStock   *ledger.NegativeStockError
		overpay    *ledger.OverpaymentError
	)
	switch {
	case errors.As(err, &validation):
		Fail(w, http.StatusUnprocessableEntity, validation.Error(), map[string]any{"violations": validation.Violations})
	case errors.As(err, &notFound):
		Fail(w, http.StatusNotFound, notFound.Error(), nil)
	case errors.As(err, &negStock):
		Fail(w, http.StatusConflict, negStock.Error(), nil)
	case errors.As(err, &overpay):
		Fail(w, http.StatusConflict, overpay.Error(), nil)
	default:
		log.Error("internal error", "err", err)
		Fail(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func write(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
