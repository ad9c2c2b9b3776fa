package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		wantLevel     zapcore.Level
	}{
		{"GET request", "GET", "/api/v1/tasks", http.StatusOK, zapcore.InfoLevel},
		{"POST request", "POST", "/api/v1/tasks", http.StatusCreated, zapcore.InfoLevel},
		{"404 request", "GET", "/notfound", http.StatusNotFound, zapcore.InfoLevel},
		{"500 request", "GET", "/api/v1/view", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				_, _ = w.Write([]byte("body"))
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			RequestID(Logging(zap.New(core))(handler)).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.handlerStatus)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 http_request entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry.Level, tt.wantLevel)
			}
			fields := entry.ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("status_code = %v", fields["status_code"])
			}
			if fields["path"] != tt.path {
				t.Errorf("path = %v", fields["path"])
			}
			if fields["bytes"] != int64(4) {
				t.Errorf("bytes = %v, want 4", fields["bytes"])
			}
			if id, _ := fields["request_id"].(string); id == "" || id != w.Header().Get("X-Request-ID") {
				t.Errorf("request_id = %v, header = %q", fields["request_id"], w.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestStatusRecorder_ImplicitOK(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rec := newStatusRecorder(w)
	_, _ = rec.Write([]byte("test"))
	rec.WriteHeader(http.StatusTeapot) // ignored after the body started

	if rec.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want 200", rec.statusCode)
	}
	if rec.Unwrap() != w {
		t.Error("Unwrap should return the wrapped writer")
	}
}
