package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/corpus"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/similarity"
	"github.com/hyperjump/ruiji/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	engine, err := corpus.NewEngine(store, similarity.NewScorer(&cfg.Similarity), &cfg.Corpus, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	srv := NewServer(engine, &cfg.Server, zap.NewNop(), nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func appendEntry(t *testing.T, baseURL string, input models.EntryInput) string {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/v1/corpus", input)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("append: got status %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "recorded" || body["id"] == "" {
		t.Fatalf("append response: %v", body)
	}
	return body["id"]
}

func TestAppendThenGet(t *testing.T) {
	ts := newTestServer(t)

	id := appendEntry(t, ts.URL, models.EntryInput{
		FuncName:      "clamp",
		FuncSignature: "clamp(x: int, lo: int, hi: int)->int",
		Passed:        5, Total: 5, Score: 1.0,
	})

	resp, err := http.Get(ts.URL + "/api/v1/corpus/" + id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: got status %d", resp.StatusCode)
	}
	var entry models.CorpusEntry
	decodeBody(t, resp, &entry)
	if entry.ID != id || entry.FuncName != "clamp" || entry.SigKey != "clamp(I,I,I)->I" {
		t.Errorf("entry: %+v", entry)
	}
}

func TestGet_NotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/corpus/nonexistent")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want 404", resp.StatusCode)
	}
}

func TestAppend_InvalidInput(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/corpus", models.EntryInput{
		FuncName: "f", Passed: 3, Total: 2, Score: 1,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", resp.StatusCode)
	}

	malformed, err := http.Post(ts.URL+"/api/v1/corpus", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer malformed.Body.Close()
	if malformed.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: got status %d, want 400", malformed.StatusCode)
	}
}

func TestList_PerfectOnly(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		appendEntry(t, ts.URL, models.EntryInput{
			FuncName: fmt.Sprintf("perfect%d", i), Passed: 4, Total: 4, Score: 1.0,
		})
	}
	for i := 0; i < 2; i++ {
		appendEntry(t, ts.URL, models.EntryInput{
			FuncName: fmt.Sprintf("partial%d", i), Passed: 2, Total: 4, Score: 0.5,
		})
	}

	resp, err := http.Get(ts.URL + "/api/v1/corpus?perfectOnly=true")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var response models.ListResponse
	decodeBody(t, resp, &response)
	if len(response.Items) != 3 || response.HasMore {
		t.Errorf("got %d items hasMore=%v, want 3 false", len(response.Items), response.HasMore)
	}
	for _, entry := range response.Items {
		if entry.Score != 1.0 {
			t.Errorf("imperfect entry in perfectOnly page: %+v", entry)
		}
	}
}

func TestList_BadParams(t *testing.T) {
	ts := newTestServer(t)

	for _, qs := range []string{
		"limit=abc",
		"offset=x",
		"perfectOnly=maybe",
		"minScore=high",
		"limit=-1",
		"minScore=0.9&maxScore=0.1",
	} {
		resp, err := http.Get(ts.URL + "/api/v1/corpus?" + qs)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want 400", qs, resp.StatusCode)
		}
	}
}

func TestSimilar_ReturnsBreakdown(t *testing.T) {
	ts := newTestServer(t)

	appendEntry(t, ts.URL, models.EntryInput{
		FuncName: "clamp", SigKey: "clamp(I,I,I)->I",
		PostBow: []string{"bounds", "min", "max"},
		Passed:  5, Total: 5, Score: 1.0,
	})
	appendEntry(t, ts.URL, models.EntryInput{
		FuncName: "clamp", SigKey: "clamp(I,I,I)->I",
		PostBow: []string{"other"},
		Passed:  3, Total: 5, Score: 0.6,
	})

	resp := postJSON(t, ts.URL+"/api/v1/corpus/similar", models.SimilarQuery{
		TargetSigKey:  "clamp(I,I,I)->I",
		TargetPostBow: []string{"bounds", "min", "max"},
		Limit:         1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var response models.SimilarResponse
	decodeBody(t, resp, &response)
	if len(response.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(response.Results))
	}
	best := response.Results[0]
	if best.Entry.Score != 1.0 {
		t.Errorf("perfect entry should rank first: %+v", best.Entry)
	}
	if best.Similarity != 1.0 {
		t.Errorf("similarity: got %f, want 1.0", best.Similarity)
	}
	b := best.Breakdown
	if b.ReturnMatch != 1.0 || b.ArgMatch != 1.0 || b.JaccardScore != 1.0 || b.PerfectBonus != 1.0 {
		t.Errorf("breakdown: %+v", b)
	}
}

func TestSimilar_MissingTarget(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/v1/corpus/similar", models.SimilarQuery{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("health body: %v", body)
	}
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	appendEntry(t, ts.URL, models.EntryInput{
		FuncName: "f", SigKey: "f(I)->I", Passed: 1, Total: 1, Score: 1,
	})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	if body["entries"].(float64) != 1 || body["perfect_runs"].(float64) != 1 {
		t.Errorf("status body: %v", body)
	}
	if body["index_buckets"].(float64) != 1 {
		t.Errorf("index_buckets: %v", body["index_buckets"])
	}
}

func TestListResponseShape(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/corpus")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	defer resp.Body.Close()
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	// An empty corpus still serializes items as [], not null.
	if string(raw["items"]) != "[]" {
		t.Errorf("items: got %s, want []", raw["items"])
	}
	if string(raw["hasMore"]) != "false" {
		t.Errorf("hasMore: got %s", raw["hasMore"])
	}
}
