package pdvapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
)

// Login exchanges credentials for an access token. It needs no token on ctx.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	empty, err := c.doJSON(ctx, call{
		endpoint:  "auth.login",
		method:    http.MethodPost,
		path:      "/api/auth/login",
		body:      req,
		anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if empty || out.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pdv api returned no access token")
	}
	return &out, nil
}

// Me returns the operator behind the token on ctx.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	empty, err := c.doJSON(ctx, call{endpoint: "auth.me", method: http.MethodGet, path: "/api/auth/me"}, &out)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired, log in again")
	}
	return &out, nil
}

// FindProduct looks a scanned code up. A 404 or a null body both mean not found.
func (c *Client) FindProduct(ctx context.Context, code string) (*Product, error) {
	var out Product
	empty, err := c.doJSON(ctx, call{
		endpoint: "products.find",
		method:   http.MethodGet,
		path:     "/api/products/find",
		query:    url.Values{"query": {code}},
	}, &out)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "products.find: not found")
	}
	return &out, nil
}

// CreateSale submits a sale and returns the persisted record.
func (c *Client) CreateSale(ctx context.Context, sale SaleIn) (*SaleOut, error) {
	var out SaleOut
	empty, err := c.doJSON(ctx, call{endpoint: "sales.create", method: http.MethodPost, path: "/api/sales", body: sale}, &out)
	if err != nil {
		return nil, err
	}
	if empty || out.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pdv api returned no sale id")
	}
	return &out, nil
}

// DashboardSummary returns the KPIs of the range.
func (c *Client) DashboardSummary(ctx context.Context, r DateRange) (*Summary, error) {
	var out Summary
	if _, err := c.doJSON(ctx, call{
		endpoint: "dashboard.summary",
		method:   http.MethodGet,
		path:     "/api/dashboard/summary",
		query:    r.values(),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestSales lists the most recent sales of the range, newest first.
func (c *Client) LatestSales(ctx context.Context, r DateRange, limit int) ([]LatestSale, error) {
	q := r.values()
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out itemsEnvelope[LatestSale]
	if _, err := c.doJSON(ctx, call{
		endpoint: "dashboard.latest_sales",
		method:   http.MethodGet,
		path:     "/api/dashboard/latest_sales",
		query:    q,
	}, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Items), nil
}

// TopProducts ranks products by quantity sold in the range.
func (c *Client) TopProducts(ctx context.Context, r DateRange) ([]TopProduct, error) {
	var out itemsEnvelope[TopProduct]
	if _, err := c.doJSON(ctx, call{
		endpoint: "dashboard.top_products",
		method:   http.MethodGet,
		path:     "/api/dashboard/top_products",
		query:    r.values(),
	}, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Items), nil
}

// ExportSalesCSV streams the CSV export of the range. The caller closes the reader.
func (c *Client) ExportSalesCSV(ctx context.Context, r DateRange) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, call{
		endpoint: "dashboard.export_csv",
		method:   http.MethodGet,
		path:     "/api/dashboard/export/sales.csv",
		query:    r.values(),
	})
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv; charset=utf-8"
	}
	return resp.Body, contentType, nil
}

// ListClients returns up to limit client names.
func (c *Client) ListClients(ctx context.Context, limit int) ([]ClientRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out itemsEnvelope[ClientRecord]
	if _, err := c.doJSON(ctx, call{endpoint: "clients.list", method: http.MethodGet, path: "/api/clients", query: q}, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Items), nil
}

func (r DateRange) values() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(r.Start); s != "" {
		q.Set("start", s)
	}
	if e := strings.TrimSpace(r.End); e != "" {
		q.Set("end", e)
	}
	return q
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
