package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Pagination must keep walking even when another strategy already found every
// entity a page carries; only a page with no candidates at all ends the sweep.
func TestPaginateContinuesPastAlreadyDiscoveredPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hospitals/india", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`
				<a href="/hospitals/apollo-chennai">Apollo</a>
				<a href="/hospitals/fortis-delhi">Fortis</a>
				<a rel="next" href="/hospitals/india?page=2">next</a>`))
		case "2":
			_, _ = w.Write([]byte(`<a href="/hospitals/medanta-gurgaon">Medanta</a>`))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cl := NewClient(1000, "test-agent")
	ex, err := NewExtractor(srv.URL)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	d := NewDiscoverer(srv.URL, cl, cl, ex, 10)

	// the location sweep got here first and already holds page 1's entities
	set := newURLSet()
	set.add(srv.URL + "/hospitals/apollo-chennai")
	set.add(srv.URL + "/hospitals/fortis-delhi")

	if err := d.paginate(context.Background(), "hospital", set); err != nil {
		t.Fatalf("paginate: %v", err)
	}

	want := srv.URL + "/hospitals/medanta-gurgaon"
	for _, u := range set.slice() {
		if u == want {
			return
		}
	}
	t.Fatalf("pagination stopped before page 2, urls = %v", set.slice())
}
