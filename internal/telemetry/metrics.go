package telemetry

import (
	"bytes"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/shaiso/Tubesmith/internal/host"
)

// Metrics — метрики одного прогона установщика.
//
// Прогон короткоживущий, поэтому вместо HTTP endpoint метрики
// записываются в textfile, который подхватывает node_exporter
// (textfile collector). Gauge, а не Counter: каждый прогон
// перезаписывает файл целиком.
type Metrics struct {
	registry *prometheus.Registry

	stepDuration *prometheus.GaugeVec
	stepSuccess  *prometheus.GaugeVec
	runSuccess   prometheus.Gauge
	runTimestamp prometheus.Gauge
}

// NewMetrics создаёт Metrics с собственным registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tubesmith_step_duration_seconds",
			Help: "Duration of the installer step during the last run.",
		}, []string{"step"}),
		stepSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tubesmith_step_success",
			Help: "Whether the installer step succeeded during the last run (1/0).",
		}, []string{"step"}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tubesmith_run_success",
			Help: "Whether the last installer run completed successfully (1/0).",
		}),
		runTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tubesmith_run_completed_timestamp_seconds",
			Help: "Unix timestamp of the last installer run completion.",
		}),
	}

	m.registry.MustRegister(m.stepDuration, m.stepSuccess, m.runSuccess, m.runTimestamp)
	return m
}

// ObserveStep фиксирует результат шага установки.
func (m *Metrics) ObserveStep(step string, duration time.Duration, success bool) {
	m.stepDuration.WithLabelValues(step).Set(duration.Seconds())
	if success {
		m.stepSuccess.WithLabelValues(step).Set(1)
	} else {
		m.stepSuccess.WithLabelValues(step).Set(0)
	}
}

// ObserveRun фиксирует итог прогона.
func (m *Metrics) ObserveRun(success bool, finishedAt time.Time) {
	if success {
		m.runSuccess.Set(1)
	} else {
		m.runSuccess.Set(0)
	}
	m.runTimestamp.Set(float64(finishedAt.Unix()))
}

// Export сериализует метрики в текстовый формат Prometheus.
func (m *Metrics) Export() ([]byte, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return nil, fmt.Errorf("encode metrics: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// WriteTextfile записывает метрики в textfile на хосте.
func (m *Metrics) WriteTextfile(h host.Host, path string) error {
	data, err := m.Export()
	if err != nil {
		return err
	}
	return h.WriteFile(path, data, 0o644)
}
