package app_test

import (
	"github.com/artpar/themebake/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testutilValue(m *metrics.Collector, direction string) float64 {
	return testutil.ToFloat64(m.ResolveTruncated.WithLabelValues(direction))
}
