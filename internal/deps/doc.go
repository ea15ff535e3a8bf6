// Package deps доводит хост до состояния, в котором доступны все
// внешние зависимости PeerTube: базовые утилиты, Node.js 20 с Yarn,
// PostgreSQL, Redis, ffmpeg, nginx и certbot, а также системный
// пользователь сервиса.
//
// Каждая операция идемпотентна: то, что preflight.Checker считает
// уже установленным, пропускается. Любой ненулевой код выхода
// пакетного менеджера фатален — частичная установка не чинится.
package deps
