package servemux

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prankvz/sentinel/router"
)

func TestServeMuxRouter(t *testing.T) {
	mux := New()

	mux.Handle("GET /api/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "healthy")
	}))
	mux.Register(router.Chains{
		"POST /api/block-ip": router.NewChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, "blocked")
		})),
		"GET /api/visits": router.NewChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "visits")
		})),
	})

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{"Simple GET", "GET", "/api/health", http.StatusOK, "healthy"},
		{"Registered chain POST", "POST", "/api/block-ip", http.StatusCreated, "blocked"},
		{"Registered chain GET", "GET", "/api/visits", http.StatusOK, "visits"},
		{"Not Found", "GET", "/not/found", http.StatusNotFound, "404 page not found\n"},
		{"Method Not Allowed", "GET", "/api/block-ip", http.StatusMethodNotAllowed, "Method Not Allowed\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					rr.Code, tc.expectedStatus)
			}

			body, err := io.ReadAll(rr.Body)
			if err != nil {
				t.Fatalf("could not read response body: %v", err)
			}
			if string(body) != tc.expectedBody {
				t.Errorf("handler returned unexpected body: got %q want %q",
					string(body), tc.expectedBody)
			}
		})
	}
}
