package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/estatewatch/internal/model"
)

// listingSource is an httptest handler imitating the search endpoint.
// pages maps page index to the ids of the cards on that page.
type listingSource struct {
	mu        sync.Mutex
	pages     map[int][]string
	lastPage  string
	requested []int
	bodies    []string
	headers   []http.Header

	// failPage, when non-zero, answers that page with failStatus.
	failPage   int
	failStatus int

	// brokenPage, when non-zero, answers that page without the Data field.
	brokenPage int
}

func (s *listingSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body) //nolint:errcheck

	var req struct {
		PageIndex int `json:"pageIndex"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || r.Method != http.MethodPost {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requested = append(s.requested, req.PageIndex)
	s.bodies = append(s.bodies, string(raw))
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	if req.PageIndex == s.failPage {
		http.Error(w, "upstream error", s.failStatus)
		return
	}
	if req.PageIndex == s.brokenPage {
		_, _ = w.Write([]byte(`{"Exception":"Object reference not set"}`)) //nolint:errcheck
		return
	}

	var sb strings.Builder
	for _, id := range s.pages[req.PageIndex] {
		fmt.Fprintf(&sb, `<div class="faqItem"><span class="price">%s TL</span><a class="offerButton" href="/Detay.aspx?id=%s">x</a></div>`, id, id)
	}
	if req.PageIndex == 1 {
		fmt.Fprintf(&sb, `<div id="ctl00_pgrEstatesBottom"><a class="pager-last" data-page="%s">son</a></div>`, s.lastPage)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"Data":      sb.String(),
		"Exception": nil,
	})
}

func (s *listingSource) requestedPages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.requested...)
}

func newSource(lastPage string, pages map[int][]string) (*listingSource, *httptest.Server) {
	src := &listingSource{pages: pages, lastPage: lastPage}
	return src, httptest.NewServer(src)
}

func TestFetcher_FetchCurrentSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("requests every page in increasing order", func(t *testing.T) {
		t.Parallel()

		src, srv := newSource("3", map[int][]string{
			1: {"11", "12"},
			2: {"21"},
			3: {"31", "32"},
		})
		defer srv.Close()

		snapshot, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		pages := src.requestedPages()
		if len(pages) != 3 || pages[0] != 1 || pages[1] != 2 || pages[2] != 3 {
			t.Errorf("expected requests for pages [1 2 3], got %v", pages)
		}

		want := []string{"11", "12", "21", "31", "32"}
		got := snapshot.IDs()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("snapshot ids = %v, want %v", got, want)
		}
		if snapshot[0].Price != "11 TL" {
			t.Errorf("expected price to be carried, got %q", snapshot[0].Price)
		}
	})

	t.Run("single page issues one request", func(t *testing.T) {
		t.Parallel()

		src, srv := newSource("1", map[int][]string{1: {"1"}})
		defer srv.Close()

		snapshot, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pages := src.requestedPages(); len(pages) != 1 {
			t.Errorf("expected 1 request, got %v", pages)
		}
		if len(snapshot) != 1 {
			t.Errorf("expected 1 listing, got %d", len(snapshot))
		}
	})

	t.Run("request body is the unfiltered search", func(t *testing.T) {
		t.Parallel()

		src, srv := newSource("2", map[int][]string{1: {"1"}, 2: {"2"}})
		defer srv.Close()

		if _, err := New(srv.Client(), srv.URL, WithUserAgent("test-agent")).FetchCurrentSnapshot(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `{"pageIndex":2,"categoryID":null,"cityID":null,"minAppraisedPrice":null,` +
			`"maxAppraisedPrice":null,"latitude":"","longitude":"","sorting":null}`
		if src.bodies[1] != want {
			t.Errorf("request body =\n%s\nwant\n%s", src.bodies[1], want)
		}
		if ct := src.headers[0].Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("unexpected Content-Type %q", ct)
		}
		if ua := src.headers[0].Get("User-Agent"); ua != "test-agent" {
			t.Errorf("unexpected User-Agent %q", ua)
		}
	})

	t.Run("non-success status aborts with ErrFetch", func(t *testing.T) {
		t.Parallel()

		src, srv := newSource("3", map[int][]string{1: {"1"}, 2: {"2"}, 3: {"3"}})
		src.failPage = 2
		src.failStatus = http.StatusInternalServerError
		defer srv.Close()

		snapshot, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(context.Background())
		if !errors.Is(err, model.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		if snapshot != nil {
			t.Errorf("expected no partial snapshot, got %v", snapshot.IDs())
		}
		if pages := src.requestedPages(); len(pages) != 2 {
			t.Errorf("expected fetch to stop after page 2, got %v", pages)
		}
	})

	t.Run("huge announced page count does not preallocate", func(t *testing.T) {
		t.Parallel()

		ids := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
		src, srv := newSource("2000000000", map[int][]string{1: ids})
		src.failPage = 2
		src.failStatus = http.StatusBadGateway
		defer srv.Close()

		snapshot, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(context.Background())
		if !errors.Is(err, model.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		if snapshot != nil {
			t.Errorf("expected no partial snapshot, got %d listings", len(snapshot))
		}
		if pages := src.requestedPages(); len(pages) != 2 || pages[1] != 2 {
			t.Errorf("expected requests for pages [1 2], got %v", pages)
		}
	})

	t.Run("extraction failure on later page aborts with ErrParse", func(t *testing.T) {
		t.Parallel()

		src, srv := newSource("3", map[int][]string{1: {"1"}, 2: {"2"}, 3: {"3"}})
		src.brokenPage = 3
		defer srv.Close()

		snapshot, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(context.Background())
		if !errors.Is(err, model.ErrParse) {
			t.Fatalf("expected ErrParse, got %v", err)
		}
		if snapshot != nil {
			t.Error("expected no partial snapshot")
		}
	})

	t.Run("missing pager on page 1 aborts with ErrParse", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"Data":"<div class=\"faqItem\"></div>","Exception":null}`)) //nolint:errcheck
		}))
		defer srv.Close()

		_, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(context.Background())
		if !errors.Is(err, model.ErrParse) {
			t.Fatalf("expected ErrParse, got %v", err)
		}
	})

	t.Run("oversized body aborts with ErrFetch", func(t *testing.T) {
		t.Parallel()

		_, srv := newSource("1", map[int][]string{1: {"1", "2", "3"}})
		defer srv.Close()

		_, err := New(srv.Client(), srv.URL, WithMaxBodySize(16)).FetchCurrentSnapshot(context.Background())
		if !errors.Is(err, model.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("connection failure aborts with ErrFetch", func(t *testing.T) {
		t.Parallel()

		_, srv := newSource("1", nil)
		url := srv.URL
		srv.Close()

		_, err := New(http.DefaultClient, url).FetchCurrentSnapshot(context.Background())
		if !errors.Is(err, model.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		t.Parallel()

		_, srv := newSource("1", map[int][]string{1: {"1"}})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(srv.Client(), srv.URL).FetchCurrentSnapshot(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !errors.Is(err, model.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})
}
