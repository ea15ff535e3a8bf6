// Package telemetry — логирование и метрики установщика.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — метрики шагов установки в формате Prometheus
//
// Установщик — короткоживущий процесс, поэтому метрики не отдаются
// с /metrics endpoint, а сериализуются в textfile для node_exporter
// (textfile collector) в конце прогона.
package telemetry
