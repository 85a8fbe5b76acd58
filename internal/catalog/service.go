package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	"github.com/angelmondragon/pdv-terminal/pkg/auth"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
	pkgredis "github.com/angelmondragon/pdv-terminal/pkg/redis"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	cacheWriteTimeout = time.Second
	// lookupTimeout bounds a shared upstream lookup once it is detached from the caller.
	lookupTimeout = 15 * time.Second
)

type productFinder interface {
	FindProduct(ctx context.Context, code string) (*pdvapi.Product, error)
}

type lookupRecorder interface {
	IncLookupCache(hit bool)
}

// Service resolves scanned codes into cart candidates.
type Service interface {
	Find(ctx context.Context, code string) (cart.Candidate, error)
}

// Config wires the lookup service.
type Config struct {
	Finder   productFinder
	Cache    pkgredis.LookupCache
	CacheTTL time.Duration
	Logger   *logger.Logger
	Metrics  lookupRecorder
	Now      func() time.Time
}

type service struct {
	finder   productFinder
	cache    pkgredis.LookupCache
	cacheTTL time.Duration
	logg     *logger.Logger
	metrics  lookupRecorder
	now      func() time.Time
	group    singleflight.Group
}

// NewService builds the lookup service. Cache is optional; without it every scan hits the PDV API.
func NewService(cfg Config) (Service, error) {
	if cfg.Finder == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		finder:   cfg.Finder,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		logg:     cfg.Logger,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}, nil
}

// Find looks the code up, serving repeated scans from the cache.
func (s *service) Find(ctx context.Context, code string) (cart.Candidate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return cart.Candidate{}, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	// Cached answers must not outlive the operator's session.
	token := pdvapi.TokenFromContext(ctx)
	if claims, err := auth.Inspect(token); err == nil && claims.Expired(s.now()) {
		return cart.Candidate{}, pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired, log in again")
	}

	if product, ok := s.cached(ctx, code); ok {
		return toCandidate(product, code), nil
	}

	// Collapsed callers share one lookup, so it must not die with whichever caller started it.
	ch := s.group.DoChan(token+"\x00"+code, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		product, err := s.finder.FindProduct(lookupCtx, code)
		if err != nil {
			return nil, err
		}
		s.store(lookupCtx, code, product)
		return product, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return cart.Candidate{}, ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return cart.Candidate{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found, register it in the catalog first").
				WithDetails(map[string]any{"code": code})
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return cart.Candidate{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid code, check the SKU/EAN").
				WithDetails(map[string]any{"code": code})
		}
		return cart.Candidate{}, err
	}
	return toCandidate(v.(*pdvapi.Product), code), nil
}

func (s *service) cached(ctx context.Context, code string) (*pdvapi.Product, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.ProductLookupKey(code))
	if err != nil {
		if !errors.Is(err, pkgredis.ErrCacheMiss) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"code": code, "error": err.Error()}), "catalog.cache_get_failed")
		}
		s.record(false)
		return nil, false
	}
	var product pdvapi.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"code": code, "error": err.Error()}), "catalog.cache_decode_failed")
		s.record(false)
		return nil, false
	}
	s.record(true)
	return &product, true
}

func (s *service) store(ctx context.Context, code string, product *pdvapi.Product) {
	if s.cache == nil || s.cacheTTL <= 0 || product == nil {
		return
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Set(writeCtx, s.cache.ProductLookupKey(code), string(payload), s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"code": code, "error": err.Error()}), "catalog.cache_set_failed")
	}
}

func (s *service) record(hit bool) {
	if s.metrics != nil {
		s.metrics.IncLookupCache(hit)
	}
}

// toCandidate converts the PDV record. Without a legacy variant on the record, a
// suffix in the scanned code selects one of the record's variant rows; a matching
// row also overrides the price.
func toCandidate(p *pdvapi.Product, code string) cart.Candidate {
	price := decimal.NewFromFloat(p.Price)
	variant := nonBlank(p.Variant)

	var row *pdvapi.ProductVariant
	if variant != nil {
		row = variantRow(p.Variants, *variant)
	} else if row = codeVariant(p, code); row != nil {
		name := strings.TrimSpace(row.Variant)
		variant = &name
	}
	if row != nil && row.Price != nil {
		price = decimal.NewFromFloat(*row.Price)
	}

	return cart.Candidate{
		SKU:      p.SKU,
		Name:     p.Name,
		Variant:  variant,
		Price:    &price,
		ImageURL: nonBlank(p.ImageURL),
	}
}

// codeVariant returns the variant row named by the code's suffix, only when the rest of
// the code is the record's own SKU. Hyphenated SKUs, EANs, name searches and suffixes
// the record does not stock never yield a variant.
func codeVariant(p *pdvapi.Product, code string) *pdvapi.ProductVariant {
	sku := strings.TrimSpace(p.SKU)
	if sku == "" || strings.EqualFold(strings.TrimSpace(code), sku) {
		return nil
	}
	parsedSKU, parsed := ParseCode(code)
	if parsed == nil || !strings.EqualFold(parsedSKU, sku) {
		return nil
	}
	return variantRow(p.Variants, *parsed)
}

func variantRow(rows []pdvapi.ProductVariant, name string) *pdvapi.ProductVariant {
	for i := range rows {
		if strings.EqualFold(strings.TrimSpace(rows[i].Variant), strings.TrimSpace(name)) {
			return &rows[i]
		}
	}
	return nil
}

func nonBlank(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
