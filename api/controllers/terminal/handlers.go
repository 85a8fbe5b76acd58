package terminal

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pdv-terminal/api/middleware"
	"github.com/angelmondragon/pdv-terminal/api/responses"
	"github.com/angelmondragon/pdv-terminal/api/validators"
	terminalsvc "github.com/angelmondragon/pdv-terminal/internal/terminal"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
)

const (
	sessionIDParam = "sessionId"
	indexParam     = "index"
)

// OpenSession starts a sale-entry session for the operator.
func OpenSession(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		snap, err := svc.Open(r.Context(), operator)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(snap))
	}
}

// ListSessions returns the operator's open sessions.
func ListSessions(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		snaps, err := svc.List(r.Context(), operator, adjustmentFromQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]sessionResponse, 0, len(snaps))
		for _, snap := range snaps {
			out = append(out, newSessionResponse(snap))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetSession renders the cart under the adjustment in the query string.
func GetSession(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		snap, err := svc.Snapshot(r.Context(), operator, chi.URLParam(r, sessionIDParam), adjustmentFromQuery(r))
		writeSnapshot(w, r, logg, snap, err)
	}
}

func CloseSession(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Close(r.Context(), operator, chi.URLParam(r, sessionIDParam)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Scan looks a code up and adds the product to the cart.
func Scan(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.Scan(r.Context(), operator, chi.URLParam(r, sessionIDParam), payload.toInput(), adjustmentFromQuery(r))
		writeSnapshot(w, r, logg, snap, err)
	}
}

// AddItem adds a manually typed item without a catalog lookup.
func AddItem(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		var payload manualItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.AddManual(r.Context(), operator, chi.URLParam(r, sessionIDParam), payload.toInput(), adjustmentFromQuery(r))
		writeSnapshot(w, r, logg, snap, err)
	}
}

func UpdateItem(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		index, err := validators.ParsePathIndex(chi.URLParam(r, indexParam), indexParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.SetQuantity(r.Context(), operator, chi.URLParam(r, sessionIDParam), index, string(payload.Quantity), adjustmentFromQuery(r))
		writeSnapshot(w, r, logg, snap, err)
	}
}

func RemoveItem(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		index, err := validators.ParsePathIndex(chi.URLParam(r, indexParam), indexParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.Remove(r.Context(), operator, chi.URLParam(r, sessionIDParam), index, adjustmentFromQuery(r))
		writeSnapshot(w, r, logg, snap, err)
	}
}

func ClearItems(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		snap, err := svc.Clear(r.Context(), operator, chi.URLParam(r, sessionIDParam), adjustmentFromQuery(r))
		writeSnapshot(w, r, logg, snap, err)
	}
}

// Checkout submits the cart as a sale. The adjustment comes from the body here, not the query.
func Checkout(svc terminalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := requireOperator(w, r, svc, logg)
		if !ok {
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Checkout(r.Context(), operator, chi.URLParam(r, sessionIDParam), payload.adjustment(), payload.metadata())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(res))
	}
}

func requireOperator(w http.ResponseWriter, r *http.Request, svc terminalsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "terminal service unavailable"))
		return "", false
	}
	operator := middleware.OperatorFromContext(r.Context())
	if operator == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing"))
		return "", false
	}
	return operator, true
}

func writeSnapshot(w http.ResponseWriter, r *http.Request, logg *logger.Logger, snap terminalsvc.Snapshot, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newSessionResponse(snap))
}
