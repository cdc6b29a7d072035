package shared_test

import (
	"reflect"
	"testing"
	"time"

	"condo_calendar/internal/calendar"
	"condo_calendar/internal/shared"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("SYNC_CONDOMINIUMS", " 3, 7 ,,9")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")
	t.Setenv("SHARE_WORKERS", "nope")
	t.Setenv("APP_TZ", "UTC")

	c := shared.Load()
	if !reflect.DeepEqual(c.Condominiums, []string{"3", "7", "9"}) {
		t.Fatalf("condominiums: %v", c.Condominiums)
	}
	if c.CacheTTL != time.Minute {
		t.Fatalf("ttl: %v", c.CacheTTL)
	}
	if c.BackendBase != "https://api.example.com" {
		t.Fatalf("base: %s", c.BackendBase)
	}
	if c.ShareWorkers != 4 {
		t.Fatalf("expected default share workers, got %d", c.ShareWorkers)
	}
	if c.Location != time.UTC {
		t.Fatalf("location: %v", c.Location)
	}
}

func TestLoad_BadTimezoneFallsBackToUTC(t *testing.T) {
	t.Setenv("APP_TZ", "Mars/Olympus_Mons")
	if c := shared.Load(); c.Location != time.UTC {
		t.Fatalf("location: %v", c.Location)
	}
}

func TestLoad_MarkPolicy(t *testing.T) {
	t.Setenv("CALENDAR_MARK_POLICY", "future,current")
	want := calendar.Policy{calendar.CategoryFuture, calendar.CategoryCurrent}
	if c := shared.Load(); !reflect.DeepEqual(c.MarkPolicy, want) {
		t.Fatalf("policy: %v", c.MarkPolicy)
	}
	t.Setenv("CALENDAR_MARK_POLICY", "future,later")
	if c := shared.Load(); c.MarkPolicy != nil {
		t.Fatalf("bad policy should fall back to default, got %v", c.MarkPolicy)
	}
}
