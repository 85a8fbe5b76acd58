package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	"github.com/angelmondragon/pdv-terminal/internal/catalog"
	"github.com/angelmondragon/pdv-terminal/internal/sales"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
	"github.com/shopspring/decimal"
)

// SalesSection is the permission an operator needs to ring up sales.
const SalesSection = "vendas"

const (
	defaultIdleTTL   = 8 * time.Hour
	manualItemName   = "Item Manual"
	checkoutOK       = "success"
	checkoutFailed   = "failure"
	checkoutRejected = "rejected"
)

type userResolver interface {
	Me(ctx context.Context) (*pdvapi.User, error)
}

type recorder interface {
	IncCartOp(op string)
	IncCheckout(outcome string)
	SetOpenSessions(n int)
	AddEvictions(n int)
}

// ScanInput is a barcode or typed code with optional quantity and price.
type ScanInput struct {
	Code     string
	Quantity int
	Price    *decimal.Decimal
}

// ManualInput adds an item that is not looked up in the catalog.
type ManualInput struct {
	SKU      string
	Name     string
	Variant  *string
	Price    *decimal.Decimal
	Quantity int
}

// Service drives the sale-entry screen of each operator.
type Service interface {
	Open(ctx context.Context, operator string) (Snapshot, error)
	List(ctx context.Context, operator string, adj cart.Adjustment) ([]Snapshot, error)
	Snapshot(ctx context.Context, operator, id string, adj cart.Adjustment) (Snapshot, error)
	Scan(ctx context.Context, operator, id string, in ScanInput, adj cart.Adjustment) (Snapshot, error)
	AddManual(ctx context.Context, operator, id string, in ManualInput, adj cart.Adjustment) (Snapshot, error)
	SetQuantity(ctx context.Context, operator, id string, index int, raw string, adj cart.Adjustment) (Snapshot, error)
	Remove(ctx context.Context, operator, id string, index int, adj cart.Adjustment) (Snapshot, error)
	Clear(ctx context.Context, operator, id string, adj cart.Adjustment) (Snapshot, error)
	Checkout(ctx context.Context, operator, id string, adj cart.Adjustment, meta cart.SaleMetadata) (*CheckoutResult, error)
	Close(ctx context.Context, operator, id string) error
	Sweep(ctx context.Context) int
	Run(ctx context.Context, interval time.Duration) error
}

// ServiceParams configure the terminal service.
type ServiceParams struct {
	Catalog  catalog.Service
	Sales    sales.Service
	Users    userResolver
	Registry *Registry
	Logger   *logger.Logger
	Metrics  recorder
	IdleTTL  time.Duration
	Now      func() time.Time
}

type service struct {
	catalog  catalog.Service
	sales    sales.Service
	users    userResolver
	registry *Registry
	logg     *logger.Logger
	metrics  recorder
	idleTTL  time.Duration
	now      func() time.Time
}

// NewService builds the terminal service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales service required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user resolver required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	ttl := params.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		catalog:  params.Catalog,
		sales:    params.Sales,
		users:    params.Users,
		registry: registry,
		logg:     params.Logger,
		metrics:  params.Metrics,
		idleTTL:  ttl,
		now:      now,
	}, nil
}

func (s *service) Open(ctx context.Context, operator string) (Snapshot, error) {
	user, err := s.users.Me(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if user.Username != operator {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeForbidden, "token does not belong to operator")
	}
	if !user.CanAccess(SalesSection) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeForbidden, "operator cannot access sales")
	}

	sess := s.registry.open(operator, digestToken(pdvapi.TokenFromContext(ctx)), s.now())
	s.setOpenSessions()

	ctx = s.logg.WithSessionID(ctx, sess.id)
	s.logg.Info(s.logg.WithField(ctx, "event", "session.opened"), "sale session opened")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshotLocked(sess, cart.Adjustment{}), nil
}

func (s *service) List(ctx context.Context, operator string, adj cart.Adjustment) ([]Snapshot, error) {
	sessions := s.registry.listFor(operator)
	digest := digestToken(pdvapi.TokenFromContext(ctx))
	confirmed := false
	for _, sess := range sessions {
		if sess.boundTo(digest) {
			continue
		}
		if !confirmed {
			if err := s.confirmOwner(ctx, operator); err != nil {
				return nil, err
			}
			confirmed = true
		}
		sess.bind(digest)
	}

	out := make([]Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		if !sess.closed {
			out = append(out, snapshotLocked(sess, adj))
		}
		sess.mu.Unlock()
	}
	return out, nil
}

func (s *service) Snapshot(ctx context.Context, operator, id string, adj cart.Adjustment) (Snapshot, error) {
	return s.withSession(ctx, operator, id, adj, "", func(*session) error { return nil })
}

// Scan resolves the code and adds the product. The cart changes only after a successful
// lookup; the session stays locked during the lookup so scans apply in arrival order.
func (s *service) Scan(ctx context.Context, operator, id string, in ScanInput, adj cart.Adjustment) (Snapshot, error) {
	if strings.TrimSpace(in.Code) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	return s.withSession(ctx, operator, id, adj, "scan", func(sess *session) error {
		candidate, err := s.catalog.Find(ctx, in.Code)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"event":      "cart.scan_failed",
				"session_id": sess.id,
				"code":       in.Code,
				"error":      err.Error(),
			}), "product lookup failed")
			return err
		}
		sess.cart.AddOrIncrement(candidate, in.Quantity, in.Price)
		return nil
	})
}

func (s *service) AddManual(ctx context.Context, operator, id string, in ManualInput, adj cart.Adjustment) (Snapshot, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = sku
	}
	if name == "" {
		name = manualItemName
	}
	candidate := cart.Candidate{SKU: sku, Name: name, Variant: in.Variant, Price: in.Price}
	return s.withSession(ctx, operator, id, adj, "add_manual", func(sess *session) error {
		sess.cart.AddOrIncrement(candidate, in.Quantity, nil)
		return nil
	})
}

func (s *service) SetQuantity(ctx context.Context, operator, id string, index int, raw string, adj cart.Adjustment) (Snapshot, error) {
	return s.withSession(ctx, operator, id, adj, "set_quantity", func(sess *session) error {
		sess.cart.SetQuantity(index, raw)
		return nil
	})
}

func (s *service) Remove(ctx context.Context, operator, id string, index int, adj cart.Adjustment) (Snapshot, error) {
	return s.withSession(ctx, operator, id, adj, "remove", func(sess *session) error {
		sess.cart.RemoveAt(index)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, operator, id string, adj cart.Adjustment) (Snapshot, error) {
	return s.withSession(ctx, operator, id, adj, "clear", func(sess *session) error {
		sess.cart.Clear()
		return nil
	})
}

// Checkout submits the cart as a sale. The cart is cleared only when the PDV API accepts it.
func (s *service) Checkout(ctx context.Context, operator, id string, adj cart.Adjustment, meta cart.SaleMetadata) (*CheckoutResult, error) {
	sess, err := s.lookup(ctx, operator, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, sessionNotFound()
	}
	sess.lastSeen = s.now()

	ctx = s.logg.WithSessionID(ctx, sess.id)
	if sess.cart.State() == cart.StateEmpty {
		s.recordCheckout(checkoutRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "add at least one item")
	}

	req := sess.cart.BuildSaleRequest(adj, meta)
	totals := sess.cart.Recompute(adj)
	itemCount := 0
	for _, line := range req.Items {
		itemCount += line.Quantity
	}

	receipt, err := s.sales.Submit(ctx, req)
	if err != nil {
		s.recordCheckout(checkoutFailed)
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"event":      "sale.submit_failed",
			"item_count": itemCount,
			"total":      req.Total.StringFixed(2),
		}), "sale submission failed", err)
		return nil, err
	}

	sess.cart.Clear()
	s.recordCheckout(checkoutOK)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"event":      "sale.submitted",
		"sale_id":    receipt.SaleID,
		"item_count": itemCount,
		"total":      req.Total.StringFixed(2),
	}), "sale submitted")

	return &CheckoutResult{
		SaleID:    receipt.SaleID,
		CreatedAt: receipt.CreatedAt,
		Totals:    totals,
		ItemCount: itemCount,
		Snapshot:  snapshotLocked(sess, cart.Adjustment{}),
	}, nil
}

func (s *service) Close(ctx context.Context, operator, id string) error {
	sess, err := s.lookup(ctx, operator, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
	s.registry.remove(sess.id)
	s.setOpenSessions()

	ctx = s.logg.WithSessionID(ctx, sess.id)
	s.logg.Info(s.logg.WithField(ctx, "event", "session.closed"), "sale session closed")
	return nil
}

// Sweep evicts idle sessions and returns how many were closed.
func (s *service) Sweep(ctx context.Context) int {
	evicted := s.registry.Sweep(s.now(), s.idleTTL)
	if evicted > 0 {
		if s.metrics != nil {
			s.metrics.AddEvictions(evicted)
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event":   "session.evicted",
			"evicted": evicted,
		}), "idle sessions evicted")
	}
	s.setOpenSessions()
	return evicted
}

func (s *service) withSession(ctx context.Context, operator, id string, adj cart.Adjustment, op string, fn func(*session) error) (Snapshot, error) {
	sess, err := s.lookup(ctx, operator, id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return Snapshot{}, sessionNotFound()
	}
	sess.lastSeen = s.now()
	if err := fn(sess); err != nil {
		return Snapshot{}, err
	}
	if op != "" && s.metrics != nil {
		s.metrics.IncCartOp(op)
	}
	return snapshotLocked(sess, adj), nil
}

// lookup returns the operator's session once the caller's token is known to be the
// operator's. A token the session has not seen is confirmed with the PDV API and then
// bound, so a fresh login keeps working while a self-signed token naming the operator does not.
func (s *service) lookup(ctx context.Context, operator, id string) (*session, error) {
	sess, ok := s.registry.get(id, operator)
	if !ok {
		return nil, sessionNotFound()
	}
	digest := digestToken(pdvapi.TokenFromContext(ctx))
	if sess.boundTo(digest) {
		return sess, nil
	}
	if err := s.confirmOwner(ctx, operator); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			return nil, sessionNotFound()
		}
		return nil, err
	}
	sess.bind(digest)
	return sess, nil
}

func (s *service) confirmOwner(ctx context.Context, operator string) error {
	user, err := s.users.Me(ctx)
	if err != nil {
		return err
	}
	if user.Username != operator {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"event":    "session.owner_mismatch",
			"operator": operator,
		}), "token does not belong to operator")
		return pkgerrors.New(pkgerrors.CodeForbidden, "token does not belong to operator")
	}
	return nil
}

func (s *service) setOpenSessions() {
	if s.metrics != nil {
		s.metrics.SetOpenSessions(s.registry.Len())
	}
}

func (s *service) recordCheckout(outcome string) {
	if s.metrics != nil {
		s.metrics.IncCheckout(outcome)
	}
}

func sessionNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "sale session not found")
}
