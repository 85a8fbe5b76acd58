package sales

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/pagination"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	mu          sync.Mutex
	created     []pdvapi.SaleIn
	createErr   error
	latestLimit []int
	summaryErr  error
	topErr      error
	ranges      []pdvapi.DateRange
	clientLimit int
}

func (s *stubAPI) CreateSale(_ context.Context, sale pdvapi.SaleIn) (*pdvapi.SaleOut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, sale)
	return &pdvapi.SaleOut{ID: 77, CreatedAt: "2026-10-19T10:00:00", Total: sale.Total}, nil
}

func (s *stubAPI) LatestSales(_ context.Context, r pdvapi.DateRange, limit int) ([]pdvapi.LatestSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestLimit = append(s.latestLimit, limit)
	s.ranges = append(s.ranges, r)
	payment := "pix"
	return []pdvapi.LatestSale{{ID: 1, CreatedAt: "2026-10-19T09:00:00", Payment: &payment, Total: 20.5}}, nil
}

func (s *stubAPI) DashboardSummary(_ context.Context, r pdvapi.DateRange) (*pdvapi.Summary, error) {
	if s.summaryErr != nil {
		return nil, s.summaryErr
	}
	return &pdvapi.Summary{KPIs: pdvapi.KPIs{Orders: 4, Revenue: 100.4, AvgTicket: 25.1, MonthRevenue: 900}}, nil
}

func (s *stubAPI) TopProducts(_ context.Context, r pdvapi.DateRange) ([]pdvapi.TopProduct, error) {
	if s.topErr != nil {
		return nil, s.topErr
	}
	return []pdvapi.TopProduct{{Name: "Camiseta", Qty: 7, Revenue: 279.3}}, nil
}

func (s *stubAPI) ExportSalesCSV(_ context.Context, r pdvapi.DateRange) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("id,total\n")), "text/csv", nil
}

func (s *stubAPI) ListClients(_ context.Context, limit int) ([]pdvapi.ClientRecord, error) {
	s.clientLimit = limit
	return []pdvapi.ClientRecord{{ID: 1, Name: "Ana"}}, nil
}

func newTestService(t *testing.T, api *stubAPI) Service {
	t.Helper()
	svc, err := NewService(api, Limits{
		History: pagination.Limits{Default: 20, Max: 500},
		Clients: pagination.Limits{Default: 50, Max: 200},
	})
	require.NoError(t, err)
	return svc
}

func saleRequest() cart.SaleRequest {
	c := cart.New()
	price := decimal.RequireFromString("39.90")
	variant := "M"
	c.AddOrIncrement(cart.Candidate{SKU: "789", Name: "Camiseta", Variant: &variant, Price: &price}, 2, nil)
	c.AddOrIncrement(cart.Candidate{Name: "Avulso", Price: &price}, 1, nil)
	return c.BuildSaleRequest(cart.Adjustment{Freight: decimal.NewFromInt(5)}, cart.SaleMetadata{PaymentMethod: "credito", Installments: 3})
}

func TestNewServiceRequiresAPI(t *testing.T) {
	_, err := NewService(nil, Limits{})
	assert.Error(t, err)
}

func TestSubmitConvertsRequest(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	receipt, err := svc.Submit(context.Background(), saleRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(77), receipt.SaleID)
	assert.Equal(t, "124.7", receipt.Total.String())

	require.Len(t, api.created, 1)
	sent := api.created[0]
	assert.Equal(t, "credito", sent.Payment)
	assert.Equal(t, 3, sent.Installments)
	assert.InDelta(t, 5.0, sent.Freight, 1e-9)
	assert.InDelta(t, 119.7, sent.Subtotal, 1e-9)
	assert.InDelta(t, 124.7, sent.Total, 1e-9)
	require.Len(t, sent.Items, 2)
	require.NotNil(t, sent.Items[0].SKU)
	assert.Equal(t, "789", *sent.Items[0].SKU)
	assert.Equal(t, "M", *sent.Items[0].Variant)
	assert.Nil(t, sent.Items[1].SKU)
	assert.Nil(t, sent.Items[1].Variant)
}

func TestSubmitRejectsEmptyAndMissingPayment(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	_, err := svc.Submit(context.Background(), cart.SaleRequest{PaymentMethod: "pix"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req := saleRequest()
	req.PaymentMethod = " "
	_, err = svc.Submit(context.Background(), req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.created)
}

func TestSubmitPropagatesUpstreamError(t *testing.T) {
	t.Parallel()

	api := &stubAPI{createErr: pkgerrors.New(pkgerrors.CodeDependency, "pdv api unreachable")}
	svc := newTestService(t, api)

	_, err := svc.Submit(context.Background(), saleRequest())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestHistoryNormalizesLimit(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	rows, err := svc.History(context.Background(), Range{}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PDV", rows[0].Channel)
	assert.Equal(t, "pix", rows[0].Payment)
	assert.Equal(t, "20.5", rows[0].Total.String())

	_, err = svc.History(context.Background(), Range{}, 10_000)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 500}, api.latestLimit)
}

func TestDashboardCombinesResults(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	dash, err := svc.Dashboard(context.Background(), Range{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), dash.KPIs.Orders)
	assert.Equal(t, "100.4", dash.KPIs.Revenue.String())
	require.Len(t, dash.TopProducts, 1)
	assert.Equal(t, int64(7), dash.TopProducts[0].Quantity)
	assert.Len(t, dash.Latest, 1)
	assert.Equal(t, []int{dashboardLatestSize}, api.latestLimit)
}

func TestDashboardFailsWhenAnyCallFails(t *testing.T) {
	t.Parallel()

	api := &stubAPI{topErr: pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired, log in again")}
	svc := newTestService(t, api)

	_, err := svc.Dashboard(context.Background(), Range{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired))
}

func TestExportAndClients(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	body, contentType, err := svc.ExportCSV(context.Background(), Range{})
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "text/csv", contentType)

	clients, err := svc.Clients(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []Client{{ID: 1, Name: "Ana"}}, clients)
	assert.Equal(t, 50, api.clientLimit)
}
