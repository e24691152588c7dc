package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProvider_HandlerExposesBuildInfoAndCustomMetrics(t *testing.T) {
	p := Init(Config{Namespace: "terradraw", Build: BuildInfo{Version: "test"}})
	p.ObserveModeSwitch("select")
	p.ObserveChange("select", "update", 3)
	p.ObserveHTTP("GET", "/features", 200, 0.01)
	p.ObserveGeoCache("centroid", "hit")
	p.SetSpatialIndexSize(5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"terradraw_build_info",
		"terradraw_mode_switches_total",
		"terradraw_feature_changes_total",
		"terradraw_http_requests_total",
		"terradraw_geocache_results_total",
		"terradraw_spatial_index_features 5",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}
