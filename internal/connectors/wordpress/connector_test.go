package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

func testSettings() *domain.Settings {
	return &domain.Settings{
		SchemaVersion:      1,
		PostTypes:          []string{"post"},
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 8,
		ChunkSize:          1000,
		ChunkOverlap:       200,
		VectorIndexHost:    "https://example.test",
		VectorIndexName:    "example",
	}
}

func makePosts(ids ...int) []post {
	posts := make([]post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, post{
			ID:      id,
			Title:   rendered{Rendered: fmt.Sprintf("Title %d", id)},
			Content: rendered{Rendered: fmt.Sprintf("<p>Body %d</p>", id)},
			Link:    fmt.Sprintf("https://example.com/%d", id),
			Date:    "2024-03-15T09:30:00",
		})
	}
	return posts
}

func writePage(t *testing.T, w http.ResponseWriter, totalPages int, posts []post) {
	t.Helper()
	w.Header().Set(totalPagesHeader, strconv.Itoa(totalPages))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(posts); err != nil {
		t.Errorf("encode page: %v", err)
	}
}

func newTestConnector(t *testing.T, serverURL string, settings *domain.Settings) *Connector {
	t.Helper()
	client, err := NewClient(ClientConfig{SiteURL: serverURL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return New(client, settings)
}

func collect(t *testing.T, docsCh <-chan domain.Document, errsCh <-chan error) ([]domain.Document, []error) {
	t.Helper()
	var docs []domain.Document
	var errs []error
	for docsCh != nil || errsCh != nil {
		select {
		case doc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			docs = append(docs, doc)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			errs = append(errs, err)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out draining the connector")
		}
	}
	return docs, errs
}

func TestFetchAll_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("status"); got != "publish" {
			t.Errorf("status = %q, want publish", got)
		}
		writePage(t, w, 1, makePosts(1, 2, 3))
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL, testSettings())
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, want := range []int{1, 2, 3} {
		if docs[i].ID != want {
			t.Errorf("doc %d: ID = %d, want %d", i, docs[i].ID, want)
		}
		if docs[i].Category != "post" {
			t.Errorf("doc %d: Category = %q", i, docs[i].Category)
		}
	}
	if docs[0].Title != "Title 1" || docs[0].Content != "Body 1" {
		t.Errorf("doc 0 not normalised: %+v", docs[0])
	}
}

func TestFetchAll_MultiPageInOrder(t *testing.T) {
	pages := map[string][]post{
		"1": makePosts(1, 2),
		"2": makePosts(3, 4),
		"3": makePosts(5),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
		writePage(t, w, 3, posts)
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL, testSettings())
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(docs))
	}
	// Concurrent page fetches must not reorder the yielded documents.
	for i, want := range []int{1, 2, 3, 4, 5} {
		if docs[i].ID != want {
			t.Errorf("doc %d: ID = %d, want %d", i, docs[i].ID, want)
		}
	}
}

func TestFetchAll_PastEndPageSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available."}`)
			return
		}
		// Page 1 claims 2 pages but the second answers 400.
		writePage(t, w, 2, makePosts(1))
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL, testSettings())
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("past-end pages must not surface errors: %v", errs)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}

func TestFetchAll_EmptyCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePage(t, w, 1, nil)
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL, testSettings())
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}

func TestFetchAll_SkipsEmptyDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts := makePosts(1)
		posts = append(posts, post{ID: 2}) // no title, no content
		posts = append(posts, makePosts(3)...)
		writePage(t, w, 1, posts)
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL, testSettings())
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != 1 || docs[1].ID != 3 {
		t.Errorf("empty document not skipped: %v, %v", docs[0].ID, docs[1].ID)
	}
}

func TestFetchAll_CategoryFailureReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/posts":
			writePage(t, w, 1, makePosts(1))
		case "/wp-json/wp/v2/pages":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"code":"internal_error","message":"broken"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	settings := testSettings()
	settings.PostTypes = []string{"post", "page"}

	connector := newTestConnector(t, server.URL, settings)
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	// The failing category reports an error; the healthy one still
	// yields its documents.
	if len(docs) != 1 || docs[0].ID != 1 {
		t.Errorf("expected the post to survive, got %v", docs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !IsServerError(errs[0]) {
		t.Errorf("expected a server error, got %v", errs[0])
	}
}

func TestFetchAll_AutoDiscovery(t *testing.T) {
	var fetchedBases []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/types":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"post": {"slug": "post", "rest_base": "posts"},
				"page": {"slug": "page", "rest_base": "pages"},
				"attachment": {"slug": "attachment", "rest_base": "media"},
				"wp_block": {"slug": "wp_block", "rest_base": ""}
			}`)
		case "/wp-json/wp/v2/posts", "/wp-json/wp/v2/pages":
			fetchedBases = append(fetchedBases, r.URL.Path)
			writePage(t, w, 1, nil)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	settings := testSettings()
	settings.AutoDiscover = true
	settings.PostTypes = nil

	connector := newTestConnector(t, server.URL, settings)
	docsCh, errsCh := connector.FetchAll(context.Background())
	_, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// Attachments and types without a REST base are never fetched.
	if len(fetchedBases) != 2 {
		t.Errorf("expected 2 content type fetches, got %v", fetchedBases)
	}
}

func TestFetchAll_DiscoveryExclusionsApplied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/types":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"post": {"slug": "post", "rest_base": "posts"},
				"product": {"slug": "product", "rest_base": "product"}
			}`)
		case "/wp-json/wp/v2/posts":
			writePage(t, w, 1, makePosts(1))
		default:
			t.Errorf("excluded type fetched: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	settings := testSettings()
	settings.AutoDiscover = true
	settings.PostTypesExclude = []string{"product"}

	connector := newTestConnector(t, server.URL, settings)
	docsCh, errsCh := connector.FetchAll(context.Background())
	docs, errs := collect(t, docsCh, errsCh)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePage(t, w, 1, makePosts(1))
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL, testSettings())
	docsCh, errsCh := connector.FetchAll(ctx)
	docs, _ := collect(t, docsCh, errsCh)

	if len(docs) != 0 {
		t.Errorf("expected no documents with a cancelled context, got %d", len(docs))
	}
}

func TestNewClient_RequiresSiteURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err != ErrSiteURLRequired {
		t.Errorf("expected ErrSiteURLRequired, got %v", err)
	}
}

func TestClient_BasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writePage(t, w, 1, makePosts(1))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{
		SiteURL:     server.URL,
		Username:    "admin",
		AppPassword: "s3cret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	posts, pages, err := client.fetchPage(context.Background(), "posts", 1, 10)
	if err != nil {
		t.Fatalf("fetchPage: %v", err)
	}
	if len(posts) != 1 || pages != 1 {
		t.Errorf("got %d posts / %d pages", len(posts), pages)
	}
}
