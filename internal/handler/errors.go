package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/httpx"
	"github.com/nikolayk812/shopflow/internal/observability"
	"go.uber.org/zap"
)

const maxJSONBodySize = 64 << 10

// writeError maps domain sentinels to status codes. Messages of 5xx errors are not exposed.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "not found", http.StatusNotFound))
	case errors.Is(err, domain.ErrAccessDenied):
		httpx.WriteError(ctx, w, httpx.NewError("access_denied", "access denied", http.StatusForbidden))
	case errors.Is(err, domain.ErrAmountMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("amount_mismatch", err.Error(), http.StatusBadRequest))
	case errors.Is(err, domain.ErrInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_state", err.Error(), http.StatusBadRequest))
	case errors.Is(err, domain.ErrInvalidValue):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, domain.ErrGateway):
		observability.FromContext(ctx).Error("payment gateway failure", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("gateway_error", "payment gateway unavailable", http.StatusBadGateway))
	case errors.Is(err, domain.ErrVerification):
		observability.FromContext(ctx).Error("payment verification failure", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("verification_error", "payment verification failed", http.StatusInternalServerError))
	default:
		observability.FromContext(ctx).Error("request failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}

func writeBadRequest(ctx context.Context, w http.ResponseWriter, message string) {
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		writeBadRequest(r.Context(), w, fmt.Sprintf("%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeBadRequest(r.Context(), w, msg)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}
