// Package host абстрагирует хост, на котором выполняется установка.
//
// Включает:
//   - host.go   — интерфейс Host, структуры Command и Outcome
//   - system.go — System: реальная реализация поверх os/exec и os
//   - fake.go   — Fake: in-memory реализация для тестов
//
// Все компоненты установщика работают с хостом только через интерфейс
// Host: выполнение внешних команд, файловая система, память. Это
// позволяет подменять хост фейком и тестировать логику шагов без
// реального Ubuntu-хоста.
package host
