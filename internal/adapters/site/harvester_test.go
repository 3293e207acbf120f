package site_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"medharvest/internal/adapters/site"
)

func newTestHarvester(t *testing.T, srv *httptest.Server) *site.Harvester {
	t.Helper()
	cl := site.NewClient(1000, "test-agent")
	h, err := site.NewHarvester(srv.URL, cl, cl, 10)
	if err != nil {
		t.Fatalf("harvester: %v", err)
	}
	return h
}

func TestHarvester_DoctorListings_FallbackPaths(t *testing.T) {
	mux := http.NewServeMux()
	// /doctors is missing; /team has the roster. The harvester must keep
	// trying paths until one yields listings.
	mux.HandleFunc("/hospitals/apollo/team", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div class="doctor-card"><h3>Dr. Anita Rao</h3>
			<span class="specialization">Cardiology</span></div>`))
	})
	mux.HandleFunc("/hospitals/apollo", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>hospital page without doctors</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newTestHarvester(t, srv)
	ds, err := h.DoctorListings(context.Background(), srv.URL+"/hospitals/apollo")
	if err != nil {
		t.Fatalf("doctor listings: %v", err)
	}
	if len(ds) != 1 || ds[0].Name != "Anita Rao" || ds[0].Specialization != "Cardiology" {
		t.Fatalf("listings = %+v", ds)
	}
}

func TestHarvester_DoctorListings_InlineOnMainPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hospitals/fortis", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<p>Led by Dr. S. K. Mehta, senior cardiologist.</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newTestHarvester(t, srv)
	ds, err := h.DoctorListings(context.Background(), srv.URL+"/hospitals/fortis")
	if err != nil {
		t.Fatalf("doctor listings: %v", err)
	}
	if len(ds) != 1 || ds[0].Name != "S. K. Mehta" {
		t.Fatalf("listings = %+v", ds)
	}
}

func TestHarvester_TreatmentCategories_FixedListFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/treatments", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no category anchors</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newTestHarvester(t, srv)
	cats, err := h.TreatmentCategories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("expected fixed-list fallback categories")
	}
	found := false
	for _, c := range cats {
		if c.Name == "Cardiac Surgery" {
			found = true
			if c.URL != srv.URL+"/treatments/cardiac-surgery" {
				t.Fatalf("category url = %q", c.URL)
			}
		}
	}
	if !found {
		t.Fatalf("missing expected fallback category: %+v", cats)
	}
}

func TestHarvester_TreatmentCategories_FromAnchors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/treatments", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
			<a href="/treatments/cardiology">Cardiology</a>
			<a href="/treatments/cardiology">Cardiology (dup)</a>
			<a href="/treatments/oncology">Oncology</a>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := newTestHarvester(t, srv)
	cats, err := h.TreatmentCategories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %+v, want 2 distinct", cats)
	}
}
