package distance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

type staticResolver struct {
	km decimal.Decimal
}

func (r staticResolver) Resolve(_ context.Context, _, _ string) (decimal.Decimal, error) {
	return r.km, nil
}

func TestCacheKeyNormalizes(t *testing.T) {
	a := cacheKey("서울 강남구  테헤란로 1", "부산 해운대구")
	b := cacheKey("서울 강남구 테헤란로 1 ", " 부산  해운대구")
	if a != b {
		t.Fatalf("expected normalized keys to match: %q vs %q", a, b)
	}
	if a == cacheKey("서울 강남구 테헤란로 1", "인천 중구") {
		t.Fatalf("different destinations must not collide")
	}
}

func TestLookupWithoutRedisFallsThrough(t *testing.T) {
	c := NewCache(nil, staticResolver{km: decimal.NewFromInt(325)}, nil)
	d, err := c.Lookup(context.Background(), "서울", "부산")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !d.Equal(decimal.NewFromInt(325)) {
		t.Fatalf("got %s, want 325", d)
	}
}

func TestLookupRejectsEmptyAddresses(t *testing.T) {
	c := NewCache(nil, staticResolver{}, nil)
	if _, err := c.Lookup(context.Background(), "", "부산"); err == nil {
		t.Fatalf("expected error for empty origin")
	}
	c2 := NewCache(nil, nil, nil)
	if _, err := c2.Lookup(context.Background(), "서울", "부산"); err == nil {
		t.Fatalf("expected ErrUnknownDistance without resolver")
	}
}
