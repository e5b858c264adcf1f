package testutil

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

// ScrapeMetrics fetches a Prometheus text exposition from url.
func ScrapeMetrics(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	return string(body)
}

// MetricValue returns the value of the first sample whose series starts with
// series, e.g. `botapi_polling_running` or `botapi_bot_commands_total{command="help"}`.
func MetricValue(metrics, series string) (float64, bool) {
	for _, line := range strings.Split(metrics, "\n") {
		if line == "" || strings.HasPrefix(line, "#") || !strings.HasPrefix(line, series) {
			continue
		}
		rest := line[len(series):]
		// Reject longer metric names sharing the prefix.
		if rest != "" && rest[0] != ' ' && rest[0] != '{' && !strings.HasSuffix(series, "}") {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// AssertMetricExists asserts that a series exists in the metrics output.
func AssertMetricExists(t *testing.T, metrics, series string) {
	t.Helper()
	if _, ok := MetricValue(metrics, series); !ok {
		t.Errorf("metric %q does not exist", series)
	}
}
