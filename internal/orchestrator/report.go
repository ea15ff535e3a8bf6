package orchestrator

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
)

// Report — итог одного прогона установщика.
//
// Сериализуется в JSON и сохраняется в ReportDir: последующие прогоны
// и внешние инструменты видят историю установок.
type Report struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Success    bool         `json:"success"`
	Degraded   bool         `json:"degraded"`
	TLS        string       `json:"tls"`
	Domain     string       `json:"domain"`
	Commit     string       `json:"commit,omitempty"`
	Steps      []StepResult `json:"steps"`
}

// URL возвращает адрес инстанса по итогам прогона.
func (r *Report) URL() string {
	scheme := "http"
	if r.TLS == "secured" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Domain)
}

// writeReport сохраняет отчёт в ReportDir под именем прогона.
func writeReport(h host.Host, report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run report: %w", err)
	}

	path := filepath.Join(config.ReportDir, "run-"+report.RunID+".json")
	if err := h.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}
	return path, nil
}
