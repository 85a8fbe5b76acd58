package sales

import (
	salessvc "github.com/angelmondragon/pdv-terminal/internal/sales"
	"github.com/angelmondragon/pdv-terminal/pkg/types"
)

type rangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type saleResponse struct {
	ID         int64       `json:"id"`
	CreatedAt  string      `json:"created_at"`
	Channel    string      `json:"channel"`
	Payment    string      `json:"payment"`
	ClientName *string     `json:"client_name,omitempty"`
	Total      types.Money `json:"total"`
}

type historyResponse struct {
	Range rangeResponse  `json:"range"`
	Items []saleResponse `json:"items"`
}

type kpisResponse struct {
	Orders       int64       `json:"orders"`
	Revenue      types.Money `json:"revenue"`
	AvgTicket    types.Money `json:"avg_ticket"`
	MonthRevenue types.Money `json:"month_revenue"`
}

type topProductResponse struct {
	Name     string      `json:"name"`
	Quantity int64       `json:"qty"`
	Revenue  types.Money `json:"revenue"`
}

type dashboardResponse struct {
	Range       rangeResponse        `json:"range"`
	KPIs        kpisResponse         `json:"kpis"`
	Latest      []saleResponse       `json:"latest"`
	TopProducts []topProductResponse `json:"top_products"`
}

type clientResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newRange(r salessvc.Range) rangeResponse {
	wire := r.Wire()
	return rangeResponse{Start: wire.Start, End: wire.End}
}

func newSales(rows []salessvc.SaleSummary) []saleResponse {
	out := make([]saleResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, saleResponse{
			ID:         row.ID,
			CreatedAt:  row.CreatedAt,
			Channel:    row.Channel,
			Payment:    row.Payment,
			ClientName: row.ClientName,
			Total:      types.NewMoney(row.Total),
		})
	}
	return out
}

func newDashboard(d *salessvc.Dashboard) dashboardResponse {
	top := make([]topProductResponse, 0, len(d.TopProducts))
	for _, p := range d.TopProducts {
		top = append(top, topProductResponse{
			Name:     p.Name,
			Quantity: p.Quantity,
			Revenue:  types.NewMoney(p.Revenue),
		})
	}
	return dashboardResponse{
		Range: newRange(d.Range),
		KPIs: kpisResponse{
			Orders:       d.KPIs.Orders,
			Revenue:      types.NewMoney(d.KPIs.Revenue),
			AvgTicket:    types.NewMoney(d.KPIs.AvgTicket),
			MonthRevenue: types.NewMoney(d.KPIs.MonthRevenue),
		},
		Latest:      newSales(d.Latest),
		TopProducts: top,
	}
}

func newClients(rows []salessvc.Client) []clientResponse {
	out := make([]clientResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, clientResponse{ID: row.ID, Name: row.Name})
	}
	return out
}
