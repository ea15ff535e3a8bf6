// Package orchestrator связывает шаги установки в линейный прогон.
//
// Orchestrator не знает, как выполняется каждый шаг: он работает с
// интерфейсами из components.go, следит за порядком, классифицирует
// ошибки (errors.go), ведёт состояние прогона (state.go) и по итогу
// пишет JSON-отчёт и метрики (report.go).
//
// Прогон идемпотентен в той мере, в какой идемпотентны шаги: каждый
// шаг сам проверяет состояние хоста и пропускает уже сделанное.
package orchestrator
