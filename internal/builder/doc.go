// Package builder получает исходники PeerTube на закреплённой
// ревизии и собирает приложение.
//
// Включает:
//   - fetch.go   — GitFetcher: клонирование и checkout через go-git
//   - builder.go — установка зависимостей и сборка через yarn
//
// Идемпотентность: если рабочая копия уже стоит на нужной ревизии,
// повторного fetch не происходит; сборка пропускается, только когда
// выходные артефакты уже существуют (так добирается прерванная
// на полпути установка).
package builder
