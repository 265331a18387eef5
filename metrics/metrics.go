package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/google/ritm-acceptor/types"
)

const (
	MetricsNamespace = "acceptor"
)

var (
	Debug                bool = true
	validVerdicts             = []types.Verdict{types.VerdictPassed, types.VerdictFailed, types.VerdictTimedOut, types.VerdictExitedWithoutMarker}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	buildStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "build_steps_total",
		Help:      "Count of executed build steps",
	}, []string{
		"run_id",
		"step",
		"result",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of pipeline runs by verdict",
	}, []string{
		"run_id",
		"verdict",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of the whole pipeline run",
	}, []string{
		"run_id",
	})

	monitorDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "monitor_duration_seconds",
		Help:      "Duration of the monitoring phase",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordBuildStep counts one executed build step and its outcome.
func RecordBuildStep(runID string, step string, passed bool) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	if Debug {
		log.Debug("metric inc",
			"m", "build_steps_total",
			"run_id", runID,
			"step", step,
			"result", result)
	}
	buildStepsTotal.WithLabelValues(runID, step, result).Inc()
}

// RecordRun records the terminal verdict and durations of one run.
func RecordRun(runID string, verdict types.Verdict, total time.Duration, monitoring time.Duration) {
	if !isValidVerdict(verdict) {
		log.Error("RecordRun - invalid verdict", "verdict", verdict)
		return
	}
	runsTotal.WithLabelValues(runID, string(verdict)).Inc()
	runDuration.WithLabelValues(runID).Set(total.Seconds())
	monitorDuration.WithLabelValues(runID).Set(monitoring.Seconds())
}

func isValidVerdict(verdict types.Verdict) bool {
	return slices.Contains(validVerdicts, verdict)
}
