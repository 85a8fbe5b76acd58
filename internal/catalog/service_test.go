package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/pdv-terminal/internal/cart"
	"github.com/angelmondragon/pdv-terminal/pkg/config"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
	pkgredis "github.com/angelmondragon/pdv-terminal/pkg/redis"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder struct {
	calls   atomic.Int32
	product *pdvapi.Product
	err     error
	gate    chan struct{}
}

func (s *stubFinder) FindProduct(ctx context.Context, code string) (*pdvapi.Product, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	p := *s.product
	return &p, nil
}

type countingRecorder struct {
	hits, misses atomic.Int32
}

func (c *countingRecorder) IncLookupCache(hit bool) {
	if hit {
		c.hits.Add(1)
		return
	}
	c.misses.Add(1)
}

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func setupCache(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func operatorCtx(t *testing.T, exp time.Time) context.Context {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "caixa",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return pdvapi.WithToken(context.Background(), tok)
}

func TestNewServiceRequiresFinder(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)
}

func TestFindRejectsBlankCode(t *testing.T) {
	svc, err := NewService(Config{Finder: &stubFinder{}})
	require.NoError(t, err)

	_, err = svc.Find(context.Background(), "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFindConvertsProduct(t *testing.T) {
	finder := &stubFinder{product: &pdvapi.Product{SKU: "789", Name: "Camiseta", Variant: strPtr("M"), Price: 39.9, ImageURL: strPtr(" ")}}
	svc, err := NewService(Config{Finder: finder})
	require.NoError(t, err)

	cand, err := svc.Find(operatorCtx(t, time.Now().Add(time.Hour)), " 789 ")
	require.NoError(t, err)
	assert.Equal(t, "789", cand.SKU)
	assert.Equal(t, "Camiseta", cand.Name)
	require.NotNil(t, cand.Variant)
	assert.Equal(t, "M", *cand.Variant)
	require.NotNil(t, cand.Price)
	assert.Equal(t, "39.9", cand.Price.String())
	assert.Nil(t, cand.ImageURL)
}

func TestFindUsesVariantFromCodeAndVariantPrice(t *testing.T) {
	finder := &stubFinder{product: &pdvapi.Product{
		SKU:   "789",
		Name:  "Camiseta",
		Price: 39.9,
		Variants: []pdvapi.ProductVariant{
			{Variant: "P", Price: f64Ptr(35)},
			{Variant: "G", Price: f64Ptr(45.5)},
		},
	}}
	svc, err := NewService(Config{Finder: finder})
	require.NoError(t, err)

	cand, err := svc.Find(operatorCtx(t, time.Now().Add(time.Hour)), "789-g")
	require.NoError(t, err)
	require.NotNil(t, cand.Variant)
	assert.Equal(t, "G", *cand.Variant)
	assert.Equal(t, "45.5", cand.Price.String())
}

func TestFindCachesSuccessfulLookups(t *testing.T) {
	cache, mr := setupCache(t)
	finder := &stubFinder{product: &pdvapi.Product{SKU: "123", Name: "Boné", Price: 25}}
	recorder := &countingRecorder{}
	svc, err := NewService(Config{Finder: finder, Cache: cache, CacheTTL: time.Minute, Metrics: recorder})
	require.NoError(t, err)
	ctx := operatorCtx(t, time.Now().Add(time.Hour))

	for i := 0; i < 3; i++ {
		cand, err := svc.Find(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, "Boné", cand.Name)
	}
	assert.Equal(t, int32(1), finder.calls.Load())
	assert.Equal(t, int32(2), recorder.hits.Load())
	assert.Equal(t, int32(1), recorder.misses.Load())
	assert.True(t, mr.Exists("pdv:lookup:123"))

	mr.FastForward(2 * time.Minute)
	_, err = svc.Find(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, int32(2), finder.calls.Load())
}

func TestFindDoesNotCacheNotFound(t *testing.T) {
	cache, mr := setupCache(t)
	finder := &stubFinder{err: pkgerrors.New(pkgerrors.CodeNotFound, "products.find: not found")}
	svc, err := NewService(Config{Finder: finder, Cache: cache, CacheTTL: time.Minute})
	require.NoError(t, err)
	ctx := operatorCtx(t, time.Now().Add(time.Hour))

	_, err = svc.Find(ctx, "000")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "product not found, register it in the catalog first", typed.Message())
	assert.False(t, mr.Exists("pdv:lookup:000"))

	_, _ = svc.Find(ctx, "000")
	assert.Equal(t, int32(2), finder.calls.Load())
}

func TestFindMapsInvalidCode(t *testing.T) {
	finder := &stubFinder{err: pkgerrors.New(pkgerrors.CodeValidation, "products.find: rejected by pdv api")}
	svc, err := NewService(Config{Finder: finder})
	require.NoError(t, err)

	_, err = svc.Find(operatorCtx(t, time.Now().Add(time.Hour)), "??")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "invalid code, check the SKU/EAN", typed.Message())
}

func TestFindPassesThroughOtherErrors(t *testing.T) {
	upstream := pkgerrors.New(pkgerrors.CodeDependency, "pdv api unreachable")
	svc, err := NewService(Config{Finder: &stubFinder{err: upstream}})
	require.NoError(t, err)

	_, err = svc.Find(operatorCtx(t, time.Now().Add(time.Hour)), "789")
	assert.True(t, errors.Is(err, upstream))
}

func TestFindRejectsExpiredSessionEvenWhenCached(t *testing.T) {
	cache, _ := setupCache(t)
	finder := &stubFinder{product: &pdvapi.Product{SKU: "123", Name: "Boné", Price: 25}}
	svc, err := NewService(Config{Finder: finder, Cache: cache, CacheTTL: time.Minute})
	require.NoError(t, err)

	_, err = svc.Find(operatorCtx(t, time.Now().Add(time.Hour)), "123")
	require.NoError(t, err)

	_, err = svc.Find(operatorCtx(t, time.Now().Add(-time.Minute)), "123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired))
	assert.Equal(t, int32(1), finder.calls.Load())
}

func TestFindCollapsesConcurrentLookups(t *testing.T) {
	finder := &stubFinder{product: &pdvapi.Product{SKU: "123", Name: "Boné", Price: 25}, gate: make(chan struct{})}
	svc, err := NewService(Config{Finder: finder})
	require.NoError(t, err)
	ctx := operatorCtx(t, time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Find(ctx, "123")
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return finder.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(finder.gate)
	wg.Wait()

	assert.Equal(t, int32(1), finder.calls.Load())
}

func TestParseCode(t *testing.T) {
	cases := []struct {
		code    string
		sku     string
		variant *string
	}{
		{"789", "789", nil},
		{"789-M", "789", strPtr("M")},
		{"789#GG", "789", strPtr("GG")},
		{" 789 Azul Claro ", "789", strPtr("Azul Claro")},
		{"789 - M", "789", strPtr("M")},
		{"789-", "789-", nil},
		{"", "", nil},
	}
	for _, tc := range cases {
		sku, variant := ParseCode(tc.code)
		assert.Equal(t, tc.sku, sku, "code %q", tc.code)
		assert.Equal(t, tc.variant, variant, "code %q", tc.code)
	}
}

func TestFindOnlyTakesStockedVariantWhenCodePrefixIsTheSKU(t *testing.T) {
	sized := []pdvapi.ProductVariant{{Variant: "M"}, {Variant: "GG", Price: f64Ptr(12)}}
	cases := []struct {
		name     string
		sku      string
		variants []pdvapi.ProductVariant
		code     string
		variant  *string
		price    string
	}{
		{"hyphenated sku scanned whole", "CAM-001", nil, "CAM-001", nil, "10"},
		{"name search", "CAM-001", nil, "camisa azul", nil, "10"},
		{"ean for another sku", "789", sized, "7891000100103 M", nil, "10"},
		{"plain sku", "789", sized, "789", nil, "10"},
		{"variantless product with suffix", "789", nil, "789 M", nil, "10"},
		{"suffix not stocked", "789", sized, "789-XG", nil, "10"},
		{"stocked suffix", "789", sized, "789 m", strPtr("M"), "10"},
		{"case-insensitive sku with priced row", "cam", sized, "CAM-gg", strPtr("GG"), "12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			finder := &stubFinder{product: &pdvapi.Product{SKU: tc.sku, Name: "Camisa", Price: 10, Variants: tc.variants}}
			svc, err := NewService(Config{Finder: finder})
			require.NoError(t, err)

			cand, err := svc.Find(operatorCtx(t, time.Now().Add(time.Hour)), tc.code)
			require.NoError(t, err)
			assert.Equal(t, tc.sku, cand.SKU)
			assert.Equal(t, tc.variant, cand.Variant)
			assert.Equal(t, tc.price, cand.Price.String())
		})
	}
}

func TestScansOfVariantlessProductShareOneKey(t *testing.T) {
	finder := &stubFinder{product: &pdvapi.Product{SKU: "789", Name: "Camiseta", Price: 39.9}}
	svc, err := NewService(Config{Finder: finder})
	require.NoError(t, err)
	ctx := operatorCtx(t, time.Now().Add(time.Hour))

	c := cart.New()
	for _, code := range []string{"789", "789 M", "789-M"} {
		cand, err := svc.Find(ctx, code)
		require.NoError(t, err)
		c.AddOrIncrement(cand, 1, nil)
	}
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

type blockingFinder struct {
	calls   atomic.Int32
	gate    chan struct{}
	product pdvapi.Product
}

func (b *blockingFinder) FindProduct(ctx context.Context, code string) (*pdvapi.Product, error) {
	b.calls.Add(1)
	select {
	case <-b.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p := b.product
	return &p, nil
}

func TestFindSharedLookupSurvivesFirstCallerCancel(t *testing.T) {
	finder := &blockingFinder{gate: make(chan struct{}), product: pdvapi.Product{SKU: "123", Name: "Boné", Price: 25}}
	svc, err := NewService(Config{Finder: finder})
	require.NoError(t, err)
	base := operatorCtx(t, time.Now().Add(time.Hour))

	firstCtx, cancel := context.WithCancel(base)
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Find(firstCtx, "123")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return finder.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		sku string
		err error
	}
	second := make(chan result, 1)
	go func() {
		cand, err := svc.Find(base, "123")
		second <- result{cand.SKU, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(finder.gate)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, "123", res.sku)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), finder.calls.Load())
}
