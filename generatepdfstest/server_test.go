package generatepdfstest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"
)

const testToken = "test-token"

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(t.Context(), method, url, &buf)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("executing request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		t.Fatalf("decoding response: %v", err)
	}

	return resp, decoded
}

func TestServer_RequiresToken(t *testing.T) {
	srv := New(testToken)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.BaseURL()+"/pdfs/generate", "wrong", map[string]string{"url": "https://example.com"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if got := srv.Requests(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	srv := New(testToken)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.BaseURL()+"/pdfs/generate", testToken, map[string]string{"html": "PGgxPmhpPC9oMT4="})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate: got status %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("generate: response %v has no data object", body)
	}
	if got := data["status"]; got != "pending" {
		t.Errorf("new document status = %v, want pending", got)
	}

	id := int(data["id"].(float64))
	downloadURL := data["download_url"].(string)

	doc, ok := srv.Get(id)
	if !ok {
		t.Fatalf("document %d not recorded", id)
	}
	if doc.HTML != "PGgxPmhpPC9oMT4=" {
		t.Errorf("recorded html = %q, want the submitted payload", doc.HTML)
	}

	// Downloading before completion must be refused.
	resp, _ = doJSON(t, http.MethodGet, downloadURL, testToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("early download: got status %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	want := []byte("%PDF-1.4 fake body")
	if err := srv.Complete(id, want); err != nil {
		t.Fatalf("completing document: %v", err)
	}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, downloadURL, nil)
	if err != nil {
		t.Fatalf("creating download request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)

	dl, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("downloading: %v", err)
	}
	defer dl.Body.Close()

	got, err := io.ReadAll(dl.Body)
	if err != nil {
		t.Fatalf("reading download body: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("downloaded %q, want %q", got, want)
	}
}

func TestServer_GenerateDiscriminator(t *testing.T) {
	srv := New(testToken)
	defer srv.Close()

	// An html key holding an empty document is still an HTML submission.
	resp, body := doJSON(t, http.MethodPost, srv.BaseURL()+"/pdfs/generate", testToken, map[string]string{"html": ""})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("empty html: got status %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response %v has no data object", body)
	}
	id := int(data["id"].(float64))
	if _, ok := srv.Get(id); !ok {
		t.Fatalf("document %d not recorded", id)
	}

	// A body with neither key is not a submission at all.
	resp, _ = doJSON(t, http.MethodPost, srv.BaseURL()+"/pdfs/generate", testToken, map[string]string{})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("no keys: got status %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestServer_GetUnknown(t *testing.T) {
	srv := New(testToken)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodGet, srv.BaseURL()+"/pdfs/99", testToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_SeedAndSetStatus(t *testing.T) {
	srv := New(testToken)
	defer srv.Close()

	id := srv.Seed("invoice.pdf", "processing", nil)

	resp, body := doJSON(t, http.MethodGet, srv.BaseURL()+"/pdfs/"+strconv.Itoa(id), testToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	data := body["data"].(map[string]any)
	if got := data["name"]; got != "invoice.pdf" {
		t.Errorf("name = %v, want invoice.pdf", got)
	}
	if got := data["status"]; got != "processing" {
		t.Errorf("status = %v, want processing", got)
	}

	if err := srv.SetStatus(id, "failed"); err != nil {
		t.Fatalf("setting status: %v", err)
	}

	doc, ok := srv.Get(id)
	if !ok {
		t.Fatalf("document %d disappeared", id)
	}
	if doc.Status != "failed" {
		t.Errorf("status after SetStatus = %q, want failed", doc.Status)
	}

	if err := srv.SetStatus(99, "failed"); err == nil {
		t.Error("expected error for unknown id")
	}
}
