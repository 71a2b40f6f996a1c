package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_UsesRouteTemplateAsPathLabel(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/api/sessions/{session_id}/join", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("POST")

	server := httptest.NewServer(router)
	defer server.Close()

	// Two different session IDs must land on one label value.
	for _, id := range []string{"abc", "def"} {
		resp, err := http.Post(server.URL+"/api/sessions/"+id+"/join", "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	}

	got := testutil.ToFloat64(requestsTotal.WithLabelValues("POST", "/api/sessions/{session_id}/join", "200"))
	if got < 2 {
		t.Errorf("template-labeled counter = %v, want >= 2", got)
	}

	// The raw paths must not have registered their own label values.
	for _, id := range []string{"abc", "def"} {
		if n := testutil.ToFloat64(requestsTotal.WithLabelValues("POST", "/api/sessions/"+id+"/join", "200")); n != 0 {
			t.Errorf("raw path /api/sessions/%s/join registered %v requests, want 0", id, n)
		}
	}
}
