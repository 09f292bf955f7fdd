package testserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer().Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv.URL+"/health")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %s", body)
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)

	for _, code := range []int{200, 404, 500, 503} {
		resp, _ := get(t, srv.URL+"/status/"+strconv.Itoa(code))
		if resp.StatusCode != code {
			t.Errorf("/status/%d returned %d", code, resp.StatusCode)
		}
	}

	resp, _ := get(t, srv.URL+"/status/999")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out-of-range code should 400, got %d", resp.StatusCode)
	}
}

func TestDelay(t *testing.T) {
	srv := newTestServer(t)

	start := time.Now()
	resp, body := get(t, srv.URL+"/delay/100")
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("responded after %v, expected at least 100ms", elapsed)
	}
	if string(body) != `{"delayed_ms":100}` {
		t.Errorf("body = %s", body)
	}
}

func TestEcho(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/echo", "application/json", strings.NewReader(`{"hello":"world"}`))
	if err != nil {
		t.Fatalf("POST /echo: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if string(body) != `{"hello":"world"}` {
		t.Errorf("echo body = %s", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}
}

func TestJSONFields(t *testing.T) {
	srv := newTestServer(t)
	_, body := get(t, srv.URL+"/json?fields=id,name")

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := parsed["id"]; !ok {
		t.Error("missing id field")
	}
	if name, ok := parsed["name"].(string); !ok || !strings.HasPrefix(name, "name-") {
		t.Errorf("name = %v", parsed["name"])
	}
}

func TestFailAfter(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 2; i++ {
		resp, _ := get(t, srv.URL+"/fail-after?n=2")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, expected 200", i, resp.StatusCode)
		}
	}
	resp, _ := get(t, srv.URL+"/fail-after?n=2")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("third request should fail, got %d", resp.StatusCode)
	}
}

func TestDrop(t *testing.T) {
	srv := newTestServer(t)

	_, err := http.Get(srv.URL + "/drop")
	if err == nil {
		t.Error("expected a transport error from a dropped connection")
	}
}

func TestHeaders(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/headers", nil)
	req.Header.Set("X-Request-Source", "suite")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /headers: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var parsed struct {
		Headers map[string]string `json:"headers"`
		Method  string            `json:"method"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Headers["X-Request-Source"] != "suite" {
		t.Errorf("headers = %v", parsed.Headers)
	}
	if parsed.Method != http.MethodGet {
		t.Errorf("method = %s", parsed.Method)
	}
}
