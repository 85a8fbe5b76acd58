package sales

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/pagination"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type salesAPI interface {
	CreateSale(ctx context.Context, sale pdvapi.SaleIn) (*pdvapi.SaleOut, error)
	LatestSales(ctx context.Context, r pdvapi.DateRange, limit int) ([]pdvapi.LatestSale, error)
	DashboardSummary(ctx context.Context, r pdvapi.DateRange) (*pdvapi.Summary, error)
	TopProducts(ctx context.Context, r pdvapi.DateRange) ([]pdvapi.TopProduct, error)
	ExportSalesCSV(ctx context.Context, r pdvapi.DateRange) (io.ReadCloser, string, error)
	ListClients(ctx context.Context, limit int) ([]pdvapi.ClientRecord, error)
}

// Service submits sales and reads sale history from the PDV API.
type Service interface {
	Submit(ctx context.Context, req cart.SaleRequest) (*Receipt, error)
	History(ctx context.Context, r Range, limit int) ([]SaleSummary, error)
	Dashboard(ctx context.Context, r Range) (*Dashboard, error)
	ExportCSV(ctx context.Context, r Range) (io.ReadCloser, string, error)
	Clients(ctx context.Context, limit int) ([]Client, error)
}

// Receipt is what a successful submission returns.
type Receipt struct {
	SaleID    int64
	CreatedAt string
	Total     decimal.Decimal
}

// SaleSummary is one history row.
type SaleSummary struct {
	ID         int64
	CreatedAt  string
	Channel    string
	Payment    string
	ClientName *string
	Total      decimal.Decimal
}

// KPIs are the dashboard headline numbers.
type KPIs struct {
	Orders       int64
	Revenue      decimal.Decimal
	AvgTicket    decimal.Decimal
	MonthRevenue decimal.Decimal
}

// TopProduct is one best-seller row.
type TopProduct struct {
	Name     string
	Quantity int64
	Revenue  decimal.Decimal
}

// Dashboard bundles everything the dashboard screen shows for a range.
type Dashboard struct {
	Range       Range
	KPIs        KPIs
	Latest      []SaleSummary
	TopProducts []TopProduct
}

// Client is a customer name offered by the sale form.
type Client struct {
	ID   int64
	Name string
}

// Limits bounds history and client list sizes.
type Limits struct {
	History pagination.Limits
	Clients pagination.Limits
}

const (
	defaultChannel      = "PDV"
	dashboardLatestSize = 10
)

type service struct {
	api    salesAPI
	limits Limits
}

// NewService wires the sales service to the PDV API.
func NewService(api salesAPI, limits Limits) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("pdv api client required")
	}
	return &service{api: api, limits: limits}, nil
}

// Submit sends the sale. Callers must not submit an empty cart.
func (s *service) Submit(ctx context.Context, req cart.SaleRequest) (*Receipt, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "add at least one item")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required").
			WithDetails(map[string]any{"field": "payment"})
	}

	out, err := s.api.CreateSale(ctx, toSaleIn(req))
	if err != nil {
		return nil, err
	}
	return &Receipt{
		SaleID:    out.ID,
		CreatedAt: out.CreatedAt,
		Total:     decimal.NewFromFloat(out.Total),
	}, nil
}

func (s *service) History(ctx context.Context, r Range, limit int) ([]SaleSummary, error) {
	rows, err := s.api.LatestSales(ctx, r.Wire(), s.limits.History.Normalize(limit))
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// Dashboard fetches KPIs, latest sales and top products concurrently; any failure fails the whole call.
func (s *service) Dashboard(ctx context.Context, r Range) (*Dashboard, error) {
	wire := r.Wire()
	var (
		summary *pdvapi.Summary
		latest  []pdvapi.LatestSale
		top     []pdvapi.TopProduct
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.api.DashboardSummary(gctx, wire)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.api.LatestSales(gctx, wire, dashboardLatestSize)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.api.TopProducts(gctx, wire)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Dashboard{
		Range:       r,
		Latest:      toSummaries(latest),
		TopProducts: make([]TopProduct, 0, len(top)),
	}
	if summary != nil {
		out.KPIs = KPIs{
			Orders:       summary.KPIs.Orders,
			Revenue:      decimal.NewFromFloat(summary.KPIs.Revenue),
			AvgTicket:    decimal.NewFromFloat(summary.KPIs.AvgTicket),
			MonthRevenue: decimal.NewFromFloat(summary.KPIs.MonthRevenue),
		}
	}
	for _, p := range top {
		out.TopProducts = append(out.TopProducts, TopProduct{
			Name:     p.Name,
			Quantity: p.Qty,
			Revenue:  decimal.NewFromFloat(p.Revenue),
		})
	}
	return out, nil
}

func (s *service) ExportCSV(ctx context.Context, r Range) (io.ReadCloser, string, error) {
	return s.api.ExportSalesCSV(ctx, r.Wire())
}

func (s *service) Clients(ctx context.Context, limit int) ([]Client, error) {
	rows, err := s.api.ListClients(ctx, s.limits.Clients.Normalize(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, Client{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func toSaleIn(req cart.SaleRequest) pdvapi.SaleIn {
	items := make([]pdvapi.SaleItemIn, 0, len(req.Items))
	for _, line := range req.Items {
		var sku *string
		if line.SKU != "" {
			v := line.SKU
			sku = &v
		}
		items = append(items, pdvapi.SaleItemIn{
			SKU:     sku,
			Name:    line.Name,
			Variant: line.Variant,
			Qty:     line.Quantity,
			Price:   line.UnitPrice.InexactFloat64(),
		})
	}
	return pdvapi.SaleIn{
		ClientName:    req.ClientName,
		Payment:       req.PaymentMethod,
		Installments:  req.Installments,
		DiscountValue: req.DiscountValue.InexactFloat64(),
		DiscountPct:   req.DiscountPercent.InexactFloat64(),
		Freight:       req.Freight.InexactFloat64(),
		Received:      req.AmountReceived.InexactFloat64(),
		Subtotal:      req.Subtotal.InexactFloat64(),
		Total:         req.Total.InexactFloat64(),
		Items:         items,
	}
}

func toSummaries(rows []pdvapi.LatestSale) []SaleSummary {
	out := make([]SaleSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, SaleSummary{
			ID:         row.ID,
			CreatedAt:  row.CreatedAt,
			Channel:    valueOr(row.Channel, defaultChannel),
			Payment:    valueOr(row.Payment, "-"),
			ClientName: row.ClientName,
			Total:      decimal.NewFromFloat(row.Total),
		})
	}
	return out
}

func valueOr(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}
