// Package memguard защищает сборку от нехватки памяти.
//
// Сборка frontend на хосте с 2 GB RAM без swap регулярно гибнет от
// OOM killer. Guard выполняет шаг сборки и, если процесс был убит по
// OOM при недостаточном swap, поднимает swap-файл и повторяет шаг
// ровно один раз. Все остальные ошибки возвращаются как есть.
package memguard
