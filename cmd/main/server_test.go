package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var siteURLPattern = regexp.MustCompile(`^/sites/[0-9a-f-]{36}\.html$`)

// setupTestServer builds a full server rooted in a temporary data directory.
func setupTestServer(tb testing.TB) (*httptest.Server, *Config) {
	tb.Helper()
	dir := tb.TempDir()

	config := DefaultConfig()
	config.Server.DataDir = dir
	config.Server.SitesDir = filepath.Join(dir, "generated_sites")
	config.Server.MaxBodyBytes = 4 << 10

	server, err := NewServer(config, slog.New(slog.DiscardHandler))
	if err != nil {
		tb.Fatalf("NewServer() error = %v", err)
	}
	ts := httptest.NewServer(server.Handler())
	tb.Cleanup(ts.Close)
	return ts, config
}

func postJSON(tb testing.TB, url, body string) *http.Response {
	tb.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		tb.Fatalf("POST %s error = %v", url, err)
	}
	tb.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(tb testing.TB, url string) *http.Response {
	tb.Helper()
	resp, err := http.Get(url)
	if err != nil {
		tb.Fatalf("GET %s error = %v", url, err)
	}
	tb.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(tb testing.TB, resp *http.Response) string {
	tb.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		tb.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

func decodeError(tb testing.TB, resp *http.Response) string {
	tb.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		tb.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func countSites(tb testing.TB, config *Config) int {
	tb.Helper()
	entries, err := os.ReadDir(config.Server.SitesDir)
	if err != nil {
		tb.Fatalf("failed to read sites dir: %v", err)
	}
	return len(entries)
}

func createSite(tb testing.TB, baseURL, body string) string {
	tb.Helper()
	resp := postJSON(tb, baseURL+"/api/create-site", body)
	if resp.StatusCode != http.StatusOK {
		tb.Fatalf("create-site status = %d, body = %s", resp.StatusCode, readBody(tb, resp))
	}
	var created CreateSiteResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		tb.Fatalf("failed to decode create-site response: %v", err)
	}
	return created.URL
}

func TestCreateSite_EndToEnd(t *testing.T) {
	ts, config := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/create-site", `{"name":"Ada","title":"Analyst","about":"<p>Hi</p><script>x()</script>"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var created CreateSiteResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Message != "Website created successfully!" {
		t.Errorf("message = %q", created.Message)
	}
	if !siteURLPattern.MatchString(created.URL) {
		t.Fatalf("url = %q does not match %s", created.URL, siteURLPattern)
	}
	if n := countSites(t, config); n != 1 {
		t.Errorf("sites on disk = %d, want 1", n)
	}

	page := get(t, ts.URL+created.URL)
	if page.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", created.URL, page.StatusCode)
	}
	if ct := page.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if page.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("configured site headers were not applied")
	}
	html := readBody(t, page)
	if !strings.Contains(html, "Ada") || !strings.Contains(html, "Analyst") {
		t.Error("served page is missing submitted values")
	}
	if !strings.Contains(html, "<p>Hi</p>") || strings.Contains(html, "<script>x()") {
		t.Error("rich field was not sanitized as expected")
	}
}

func TestCreateSite_DistinctKeys(t *testing.T) {
	ts, config := setupTestServer(t)

	first := createSite(t, ts.URL, `{"name":"Ada"}`)
	second := createSite(t, ts.URL, `{"name":"Ada"}`)
	if first == second {
		t.Fatalf("identical submissions share url %q", first)
	}
	if n := countSites(t, config); n != 2 {
		t.Errorf("sites on disk = %d, want 2", n)
	}
}

func TestCreateSite_BadRequests(t *testing.T) {
	ts, config := setupTestServer(t)

	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing name", `{"title":"Engineer"}`, http.StatusBadRequest, "Missing required data"},
		{"blank name", `{"name":"   "}`, http.StatusBadRequest, "name: must not be empty"},
		{"empty body", ``, http.StatusBadRequest, "Missing required data"},
		{"null body", `null`, http.StatusBadRequest, "Missing required data"},
		{"invalid json", `{"name":`, http.StatusBadRequest, ""},
		{"non-object", `["Ada"]`, http.StatusBadRequest, ""},
		{"unknown template", `{"name":"Ada","template":"nope.tmpl.html"}`, http.StatusBadRequest, ""},
		{"too large", `{"name":"` + strings.Repeat("a", 8<<10) + `"}`, http.StatusRequestEntityTooLarge, "Request body too large"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/create-site", tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			msg := decodeError(t, resp)
			if tc.wantError != "" && msg != tc.wantError {
				t.Errorf("error = %q, want %q", msg, tc.wantError)
			}
			if msg == "" {
				t.Error("error message is empty")
			}
		})
	}

	if n := countSites(t, config); n != 0 {
		t.Errorf("rejected requests wrote %d sites", n)
	}
}

func TestCreateSite_StorageFailure(t *testing.T) {
	ts, config := setupTestServer(t)

	if err := os.RemoveAll(config.Server.SitesDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.Server.SitesDir, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, ts.URL+"/api/create-site", `{"name":"Ada"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if msg := decodeError(t, resp); msg == "" {
		t.Error("expected an error message")
	}
}

func TestServeSite_NotFound(t *testing.T) {
	ts, config := setupTestServer(t)
	url := createSite(t, ts.URL, `{"name":"Ada"}`)

	secret := filepath.Join(config.Server.DataDir, "secret.html")
	if err := os.WriteFile(secret, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}

	paths := []string{
		"/sites/00000000-0000-4000-8000-000000000000.html",
		strings.TrimSuffix(url, ".html"),
		url + ".bak",
		"/sites/%2e%2e%2fsecret.html",
		"/sites/..%2Fsecret.html",
		"/sites/.html",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			resp := get(t, ts.URL+p)
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("GET %s status = %d, want 404", p, resp.StatusCode)
			}
			if strings.Contains(readBody(t, resp), "secret") {
				t.Errorf("GET %s leaked a file outside the sites directory", p)
			}
		})
	}
}

func TestServeSite_ConditionalGet(t *testing.T) {
	ts, _ := setupTestServer(t)
	url := createSite(t, ts.URL, `{"name":"Ada"}`)

	first := get(t, ts.URL+url)
	lastModified := first.Header.Get("Last-Modified")
	if lastModified == "" {
		t.Fatal("Last-Modified header is missing")
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("If-Modified-Since", lastModified)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("status = %d, want 304", resp.StatusCode)
	}
}

func TestIndex(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := readBody(t, resp)
	for _, want := range []string{`id="portfolio-form"`, `/static/script.js`, `value="portfolio.tmpl.html" selected`, `value="grid.tmpl.html"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index page is missing %q", want)
		}
	}

	script := get(t, ts.URL+"/static/script.js")
	if script.StatusCode != http.StatusOK {
		t.Fatalf("static asset status = %d, want 200", script.StatusCode)
	}
	if !strings.Contains(readBody(t, script), "/api/create-site") {
		t.Error("form script does not post to the create endpoint")
	}
}

func TestTemplateAPI(t *testing.T) {
	ts, config := setupTestServer(t)

	t.Run("List", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/templates")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var list TemplateList
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatal(err)
		}
		if list.Default != "portfolio.tmpl.html" {
			t.Errorf("default = %q", list.Default)
		}
		want := []string{"grid.tmpl.html", "portfolio.tmpl.html", "showcase.tmpl.html"}
		if strings.Join(list.Templates, ",") != strings.Join(want, ",") {
			t.Errorf("templates = %v, want %v", list.Templates, want)
		}
	})

	t.Run("Refresh picks up new templates", func(t *testing.T) {
		path := filepath.Join(config.Server.DataDir, "templates", "plain.tmpl.html")
		if err := os.WriteFile(path, []byte(`<h1>{{.Name}}</h1>`), 0644); err != nil {
			t.Fatal(err)
		}
		resp, err := http.Post(ts.URL+"/api/templates/refresh", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", resp.StatusCode)
		}

		url := createSite(t, ts.URL, `{"name":"Grace","template":"plain.tmpl.html"}`)
		if body := readBody(t, get(t, ts.URL+url)); body != "<h1>Grace</h1>" {
			t.Errorf("page = %q, want <h1>Grace</h1>", body)
		}
	})

	t.Run("Preview does not store", func(t *testing.T) {
		before := countSites(t, config)
		resp := postJSON(t, ts.URL+"/api/templates/preview", `{"name":"Linus","template":"showcase.tmpl.html"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(readBody(t, resp), "Linus") {
			t.Error("preview is missing the name")
		}
		if after := countSites(t, config); after != before {
			t.Errorf("preview wrote %d sites", after-before)
		}
	})

	t.Run("Preview validates", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/api/templates/preview", `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestServerAPI(t *testing.T) {
	ts, _ := setupTestServer(t)

	var health map[string]string
	if err := json.NewDecoder(get(t, ts.URL+"/api/health").Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	var version VersionInfo
	if err := json.NewDecoder(get(t, ts.URL+"/api/version").Body).Decode(&version); err != nil {
		t.Fatal(err)
	}
	if version.Version != Version || version.Commit != Commit {
		t.Errorf("version = %+v", version)
	}
}

func BenchmarkCreateSite(b *testing.B) {
	ts, _ := setupTestServer(b)
	body := `{"name":"Ada","title":"Analyst","skills":"Go, SQL","about":"<p>Hello</p>"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := http.Post(ts.URL+"/api/create-site", "application/json", strings.NewReader(body))
		if err != nil {
			b.Fatal(err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
