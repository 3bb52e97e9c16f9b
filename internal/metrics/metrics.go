// Package metrics exposes Prometheus instrumentation for a running pool:
// how many children are live, how many have been reaped, and how often
// escalation and age-killing have fired.
package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	kidsRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "procpool",
		Name:      "kids_running",
		Help:      "Number of children currently registered as live.",
	})

	kidsReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procpool",
		Name:      "kids_reaped_total",
		Help:      "Total number of children reaped.",
	})

	killEscalations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procpool",
		Name:      "kill_escalations_total",
		Help:      "Total number of kill-sequence steps sent, by signal.",
	}, []string{"signal"})

	ageKills = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procpool",
		Name:      "age_kills_total",
		Help:      "Total number of children terminated for exceeding the age limit.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "procpool",
		Name:      "build_info",
		Help:      "Build metadata for the running procpool binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(kidsRunning, kidsReaped, killEscalations, ageKills, buildInfo)
}

// Registry returns the Prometheus registry containing all procpool metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetKidsRunning records the current number of live children.
func SetKidsRunning(n int) {
	kidsRunning.Set(float64(n))
}

// IncrementKidsReaped increments the reaped-children counter by one.
func IncrementKidsReaped() {
	kidsReaped.Inc()
}

// ObserveKillStep records one kill-sequence escalation step for the given
// signal name (e.g. "SIGTERM").
func ObserveKillStep(signal string) {
	if signal == "" {
		return
	}
	killEscalations.WithLabelValues(signal).Inc()
}

// IncrementAgeKills increments the age-limit termination counter by one.
func IncrementAgeKills() {
	ageKills.Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
