// Package cli содержит команды установщика.
//
// Команды:
//   - install — полный прогон установки (требует root)
//   - check   — read-only снимок состояния хоста
//   - render  — dry-run рендеринг файлов развёртывания
//   - service — управление сервисом инстанса (start/stop/restart/status/logs)
//
// Табличный и JSON-вывод реализованы в output.go; общие флаги — в
// app.go. Команды собираются в корневую в cmd/tubesmith.
package cli
