package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// baiduServer fakes the token and OCR endpoints. ocr is called for every OCR
// request after the token has been checked.
func baiduServer(t *testing.T, ocr func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var tokenCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc(baiduTokenPath, func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		q := r.URL.Query()
		if q.Get("grant_type") != "client_credentials" || q.Get("client_id") != "key" || q.Get("client_secret") != "secret" {
			json.NewEncoder(w).Encode(baiduTokenResponse{Error: "invalid_client", ErrorDescription: "unknown client id"})
			return
		}
		json.NewEncoder(w).Encode(baiduTokenResponse{AccessToken: "tok", ExpiresIn: 2592000})
	})
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "tok" {
			t.Errorf("missing access token: %s", r.URL.RawQuery)
		}
		ocr(w, r)
	}
	mux.HandleFunc(baiduGeneralPath, handler)
	mux.HandleFunc(baiduAccuratePath, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenCalls
}

func newTestBaidu(t *testing.T, baseURL string) *BaiduClient {
	t.Helper()
	c, err := NewBaiduClient(BaiduConfig{
		APIKey:     "key",
		SecretKey:  "secret",
		BaseURL:    baseURL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewBaiduClient: %v", err)
	}
	return c
}

func TestBaiduClient_Recognize(t *testing.T) {
	t.Run("successful OCR", func(t *testing.T) {
		server, _ := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != baiduGeneralPath {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("unexpected content-type: %s", ct)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
				return
			}
			img, err := base64.StdEncoding.DecodeString(r.PostForm.Get("image"))
			if err != nil || string(img) != "fake image data" {
				t.Errorf("unexpected image payload: %q", r.PostForm.Get("image"))
			}
			if r.PostForm.Get("language_type") != LangChineseEnglish {
				t.Errorf("language_type = %q", r.PostForm.Get("language_type"))
			}
			if r.PostForm.Get("probability") != "true" {
				t.Errorf("probability = %q", r.PostForm.Get("probability"))
			}
			if _, ok := r.PostForm["accuracy"]; ok {
				t.Error("accuracy must not be sent to the API")
			}

			w.Write([]byte(`{"log_id": 1, "words_result_num": 2, "words_result": [
				{"words": "剧情梗概", "probability": {"average": 0.98, "min": 0.9, "variance": 0.01}},
				{"words": "第一章"}
			]}`))
		})

		client := newTestBaidu(t, server.URL)
		rec, err := client.Recognize(context.Background(), []byte("fake image data"), DefaultOptions(LangChineseEnglish, false))
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}

		if got := rec.Texts(); len(got) != 2 || got[0] != "剧情梗概" || got[1] != "第一章" {
			t.Errorf("unexpected lines: %q", got)
		}
		if rec.Lines[0].Confidence == nil || *rec.Lines[0].Confidence != 0.98 {
			t.Errorf("line 0 confidence = %v, want 0.98", rec.Lines[0].Confidence)
		}
		if rec.Lines[1].Confidence != nil {
			t.Errorf("line 1 confidence = %v, want nil", *rec.Lines[1].Confidence)
		}
		if !rec.Trace.Success || !strings.Contains(rec.Trace.Raw, "words_result") {
			t.Errorf("unexpected trace: %+v", rec.Trace)
		}
		if rec.Trace.Options["detect_direction"] != "true" {
			t.Errorf("trace options = %v", rec.Trace.Options)
		}
	})

	t.Run("high accuracy uses accurate endpoint", func(t *testing.T) {
		server, _ := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != baiduAccuratePath {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Write([]byte(`{"words_result_num": 1, "words_result": [{"words": "ok"}]}`))
		})

		client := newTestBaidu(t, server.URL)
		rec, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions(LangJapanese, true))
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if rec.Trace.Options["accuracy"] != "high" {
			t.Errorf("trace options = %v", rec.Trace.Options)
		}
	})

	t.Run("service error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server, _ := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(`{"error_code": 216201, "error_msg": "image format error"}`))
		})

		client := newTestBaidu(t, server.URL)
		rec, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false))
		if err == nil {
			t.Fatal("expected error")
		}

		var be *BackendError
		if !errors.As(err, &be) || be.Backend != BaiduName {
			t.Errorf("error = %v, want *BackendError", err)
		}
		var apiErr *BaiduAPIError
		if !errors.As(err, &apiErr) || apiErr.Code != 216201 {
			t.Errorf("error = %v, want BaiduAPIError 216201", err)
		}
		if calls.Load() != 1 {
			t.Errorf("OCR calls = %d, want 1", calls.Load())
		}
		if rec == nil || !strings.Contains(rec.Trace.ErrorMessage, "image format error") || rec.Trace.Success {
			t.Errorf("unexpected trace: %+v", rec)
		}
	})

	t.Run("QPS limit is retried", func(t *testing.T) {
		var calls atomic.Int32
		server, _ := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Write([]byte(`{"error_code": 18, "error_msg": "Open api qps request limit reached"}`))
				return
			}
			w.Write([]byte(`{"words_result_num": 1, "words_result": [{"words": "retried"}]}`))
		})

		client := newTestBaidu(t, server.URL)
		rec, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false))
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if calls.Load() != 2 || rec.Lines[0].Text != "retried" {
			t.Errorf("calls = %d, lines = %q", calls.Load(), rec.Texts())
		}
	})

	t.Run("server errors exhaust retries", func(t *testing.T) {
		var calls atomic.Int32
		server, _ := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("bad gateway"))
		})

		client := newTestBaidu(t, server.URL)
		_, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false))

		var statusErr *HTTPStatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
			t.Errorf("error = %v, want HTTPStatusError 502", err)
		}
		if calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", calls.Load())
		}
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		var calls atomic.Int32
		server, tokenCalls := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Write([]byte(`{"error_code": 111, "error_msg": "Access token expired"}`))
				return
			}
			w.Write([]byte(`{"words_result_num": 1, "words_result": [{"words": "fresh"}]}`))
		})

		client := newTestBaidu(t, server.URL)
		if _, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false)); err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if tokenCalls.Load() != 2 {
			t.Errorf("token calls = %d, want 2", tokenCalls.Load())
		}
	})

	t.Run("token is cached between calls", func(t *testing.T) {
		server, tokenCalls := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"words_result_num": 1, "words_result": [{"words": "x"}]}`))
		})

		client := newTestBaidu(t, server.URL)
		for i := 0; i < 3; i++ {
			if _, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false)); err != nil {
				t.Fatalf("Recognize() error = %v", err)
			}
		}
		if tokenCalls.Load() != 1 {
			t.Errorf("token calls = %d, want 1", tokenCalls.Load())
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		server, _ := baiduServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("OCR endpoint must not be called without a token")
		})

		client, err := NewBaiduClient(BaiduConfig{APIKey: "wrong", SecretKey: "secret", BaseURL: server.URL}, nil)
		if err != nil {
			t.Fatal(err)
		}
		_, err = client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false))
		if err == nil || !strings.Contains(err.Error(), "invalid_client") {
			t.Errorf("error = %v, want invalid_client", err)
		}
	})
}

func TestBaiduClient_TestMode(t *testing.T) {
	client, err := NewBaiduClient(BaiduConfig{
		TestMode:      true,
		SimulatedText: "剧情梗概\n测试文本\n取消",
		BaseURL:       "http://127.0.0.1:1",
	}, nil)
	if err != nil {
		t.Fatalf("NewBaiduClient: %v", err)
	}

	rec, err := client.Recognize(context.Background(), []byte("img"), DefaultOptions("", false))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got := rec.Texts(); len(got) != 3 || got[1] != "测试文本" {
		t.Errorf("lines = %q", got)
	}
	if !strings.Contains(rec.Trace.Raw, "测试文本") {
		t.Errorf("raw = %q", rec.Trace.Raw)
	}
}

func TestNewBaiduClient_RequiresCredentials(t *testing.T) {
	if _, err := NewBaiduClient(BaiduConfig{APIKey: "key"}, nil); err == nil {
		t.Error("expected error without secret key")
	}
	if _, err := NewBaiduClient(BaiduConfig{TestMode: true}, nil); err != nil {
		t.Errorf("test mode must not need credentials: %v", err)
	}
}

func TestBaiduClient_Limits(t *testing.T) {
	client, _ := NewBaiduClient(BaiduConfig{TestMode: true}, nil)
	if client.MaxWidth() != 8192 || client.MaxHeight() != 8192 {
		t.Errorf("limits = %dx%d, want 8192x8192", client.MaxWidth(), client.MaxHeight())
	}
	if client.APIDelay() != 1500*time.Millisecond {
		t.Errorf("APIDelay = %v, want 1.5s", client.APIDelay())
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"qps limit", &BaiduAPIError{Code: 18}, true},
		{"token expired", &BaiduAPIError{Code: 111}, true},
		{"bad image", &BaiduAPIError{Code: 216201}, false},
		{"server error", &HTTPStatusError{StatusCode: 500}, true},
		{"too many requests", &HTTPStatusError{StatusCode: 429}, true},
		{"not found", &HTTPStatusError{StatusCode: 404}, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
