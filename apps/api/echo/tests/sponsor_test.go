package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/prologin/gccsite/core/sponsor"
)

func Test_sponsorApi_query(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	active, err := f.spSvc.Create(ctx, sponsor.Sponsor{
		Name:     "ACME Corp",
		SiteURL:  "https://acme.example.com",
		LogoURL:  "https://acme.example.com/logo.png",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err = f.spSvc.Create(ctx, sponsor.Sponsor{Name: "Has-been Inc"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tt := httpTest{wantData: marchallList(t, active)}
	req, rec := newRequest(http.MethodGet, "/v1/sponsors")
	f.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
