package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/themebake/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.Lookups == nil {
		t.Error("Lookups is nil")
	}
	if m.ComposeDuration == nil {
		t.Error("ComposeDuration is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.ResolveTruncated == nil {
		t.Error("ResolveTruncated is nil")
	}
}

func TestLookup(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.Lookup(metrics.ResultHit)
	m.Lookup(metrics.ResultHit)
	m.Lookup(metrics.ResultMiss)

	if got := testutil.ToFloat64(m.Lookups.WithLabelValues(metrics.ResultHit)); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Lookups.WithLabelValues(metrics.ResultMiss)); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestCounters(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.CacheCleared()
	m.Published(4)
	m.PublishFailed()
	m.Truncated("up")
	m.PeerMessage()
	m.ConfigReloaded(nil)
	m.ConfigReloaded(errors.New("bad yaml"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"cache_clears", m.CacheClears, 1},
		{"published", m.InvalidationsPublished, 4},
		{"publish_errors", m.PublishErrors, 1},
		{"truncated_up", m.ResolveTruncated.WithLabelValues("up"), 1},
		{"peer_messages", m.PeerMessages, 1},
		{"config_reloads", m.ConfigReloads, 1},
		{"config_reload_errors", m.ConfigReloadErrors, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Compose(5 * time.Millisecond)
	m.Request("GET", "200", 10*time.Millisecond)
	m.Request("POST", "400", 10*time.Millisecond)

	if n := testutil.CollectAndCount(m.RequestDuration); n != 2 {
		t.Errorf("request series = %d, want 2", n)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "themebake_compose_duration_seconds" {
			found = true
			if c := f.GetMetric()[0].GetHistogram().GetSampleCount(); c != 1 {
				t.Errorf("compose samples = %d, want 1", c)
			}
		}
	}
	if !found {
		t.Error("themebake_compose_duration_seconds metric not found")
	}
}

func TestNilCollector(t *testing.T) {
	var m *metrics.Collector

	// None of these may panic.
	m.Lookup(metrics.ResultBlank)
	m.Compose(time.Second)
	m.CacheCleared()
	m.Published(1)
	m.PublishFailed()
	m.Truncated("down")
	m.PeerMessage()
	m.Request("GET", "200", time.Second)
	m.ConfigReloaded(nil)
}
