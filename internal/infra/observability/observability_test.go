package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := StatusClass(tt.code); got != tt.want {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/test", "4xx"))

	ObserveRequest("GET", "/test", 404, 5*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/test", "4xx"))
	if after != before+1 {
		t.Errorf("4xx counter = %v, want %v", after, before+1)
	}
}

func TestSubmissionCounters(t *testing.T) {
	before := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("success"))
	SubmissionsTotal.WithLabelValues("success").Inc()
	after := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("success"))
	if after != before+1 {
		t.Errorf("success counter = %v, want %v", after, before+1)
	}
}
