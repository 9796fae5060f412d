package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestHandler(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gbif_metrics_handler_test_total",
		Help: "Counter registered by the metrics handler test",
	})
	Registry.MustRegister(c)
	defer Registry.Unregister(c)
	c.Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "gbif_metrics_handler_test_total 3") {
		t.Errorf("metrics output misses the test counter:\n%s", body)
	}
}
