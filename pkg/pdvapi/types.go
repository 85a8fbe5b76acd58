package pdvapi

import "strings"

// RoleAdmin bypasses per-section permission checks.
const RoleAdmin = "admin"

// LoginRequest is the credential payload for /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the upstream access token and the operator profile.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}

// User is the operator profile returned by /api/auth/me.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	FullName    *string  `json:"full_name,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// CanAccess reports whether the user may open the given section (e.g. "vendas").
func (u User) CanAccess(section string) bool {
	if strings.EqualFold(u.Role, RoleAdmin) {
		return true
	}
	for _, perm := range u.Permissions {
		if strings.EqualFold(strings.TrimSpace(perm), section) {
			return true
		}
	}
	return false
}

// Product is the catalog record returned by /api/products/find.
type Product struct {
	ID       int64            `json:"id"`
	SKU      string           `json:"sku"`
	Name     string           `json:"name"`
	Variant  *string          `json:"variant,omitempty"`
	Price    float64          `json:"price"`
	ImageURL *string          `json:"image_url,omitempty"`
	Variants []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is one stock row of a product. Price overrides the product price when set.
type ProductVariant struct {
	ID      int64    `json:"id"`
	Variant string   `json:"variant"`
	Stock   int      `json:"stock"`
	Price   *float64 `json:"price,omitempty"`
}

// SaleItemIn is one line of a sale submission.
type SaleItemIn struct {
	SKU     *string `json:"sku"`
	Name    string  `json:"name"`
	Variant *string `json:"variant"`
	Qty     int     `json:"qty"`
	Price   float64 `json:"price"`
}

// SaleIn is the body of POST /api/sales.
type SaleIn struct {
	ClientName    *string      `json:"client_name"`
	Payment       string       `json:"payment"`
	Installments  int          `json:"installments"`
	DiscountValue float64      `json:"discount_value"`
	DiscountPct   float64      `json:"discount_pct"`
	Freight       float64      `json:"freight"`
	Received      float64      `json:"received"`
	Subtotal      float64      `json:"subtotal"`
	Total         float64      `json:"total"`
	Items         []SaleItemIn `json:"items"`
}

// SaleOut is the persisted sale echoed back by the PDV API.
type SaleOut struct {
	ID           int64        `json:"id"`
	ClientName   *string      `json:"client_name"`
	Payment      string       `json:"payment"`
	Installments int          `json:"installments"`
	Subtotal     float64      `json:"subtotal"`
	Total        float64      `json:"total"`
	CreatedAt    string       `json:"created_at"`
	Items        []SaleItemIn `json:"items"`
}

// DateRange filters dashboard and history queries. Dates are YYYY-MM-DD; empty means open.
type DateRange struct {
	Start string
	End   string
}

// KPIs are the dashboard headline numbers.
type KPIs struct {
	Orders       int64   `json:"orders"`
	Revenue      float64 `json:"revenue"`
	AvgTicket    float64 `json:"avg_ticket"`
	MonthRevenue float64 `json:"month_revenue"`
}

// Summary wraps /api/dashboard/summary.
type Summary struct {
	KPIs KPIs `json:"kpis"`
}

// LatestSale is one row of /api/dashboard/latest_sales.
type LatestSale struct {
	ID         int64   `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Channel    *string `json:"channel,omitempty"`
	Payment    *string `json:"payment,omitempty"`
	ClientName *string `json:"client_name,omitempty"`
	Total      float64 `json:"total"`
}

// TopProduct is one row of /api/dashboard/top_products.
type TopProduct struct {
	Name    string  `json:"name"`
	Qty     int64   `json:"qty"`
	Revenue float64 `json:"revenue"`
}

// ClientRecord is one customer available to the sale form.
type ClientRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type itemsEnvelope[T any] struct {
	Items []T `json:"items"`
}
