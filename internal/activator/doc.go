// Package activator вводит сервис в строй: проверяет и перезагружает
// nginx, включает и перезапускает systemd unit, открывает web-порты в
// файрволе и подтверждает, что сервис действительно запустился.
//
// Все действия идемпотентны: повторное включение unit или открытие
// уже открытого порта — не ошибка. Успех активации — критерий успеха
// всей установки.
package activator
