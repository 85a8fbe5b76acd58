package sales

import (
	"net/http"
	"time"

	"github.com/angelmondragon/pdv-terminal/api/responses"
	"github.com/angelmondragon/pdv-terminal/api/validators"
	salessvc "github.com/angelmondragon/pdv-terminal/internal/sales"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
)

const (
	maxLimitParam  = 10000
	exportFilename = "vendas.csv"
)

// Clock returns the current time in the store's timezone; date presets are resolved against it.
type Clock func() time.Time

// History lists sales for a date range.
func History(svc salessvc.Service, now Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		rng, err := rangeFromQuery(r, now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxLimitParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.History(r.Context(), rng, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyResponse{Range: newRange(rng), Items: newSales(rows)})
	}
}

// Dashboard returns KPIs, latest sales and best sellers for a date range.
func Dashboard(svc salessvc.Service, now Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		rng, err := rangeFromQuery(r, now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dash, err := svc.Dashboard(r.Context(), rng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDashboard(dash))
	}
}

// ExportCSV streams the PDV API's CSV export through to the client.
func ExportCSV(svc salessvc.Service, now Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		rng, err := rangeFromQuery(r, now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, contentType, err := svc.ExportCSV(r.Context(), rng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer body.Close()
		if err := responses.WriteStream(w, contentType, exportFilename, body); err != nil && logg != nil {
			logg.Error(r.Context(), "export.stream_failed", err)
		}
	}
}

// Clients lists customer names for the sale form.
func Clients(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxLimitParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Clients(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": newClients(rows)})
	}
}

func rangeFromQuery(r *http.Request, now Clock) (salessvc.Range, error) {
	if now == nil {
		now = time.Now
	}
	q := r.URL.Query()
	return salessvc.ParseRange(q.Get("range"), q.Get("start"), q.Get("end"), now())
}

func available(w http.ResponseWriter, r *http.Request, svc salessvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
		return false
	}
	return true
}
