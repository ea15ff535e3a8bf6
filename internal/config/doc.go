// Package config загружает и валидирует параметры установки.
//
// Включает:
//   - envfile.go — разбор параметр-файла pt.env (KEY=VALUE строки)
//   - config.go  — структура Config, значения по умолчанию, валидация
//   - secret.go  — SecretStore: источник секрета приложения
//   - errors.go  — ошибки валидации
//
// Параметры берутся из pt.env и переменных окружения (окружение
// приоритетнее). После успешного Load конфигурация неизменяема:
// все последующие шаги установки читают один и тот же Config.
//
// Ошибки валидации возникают до любых изменений хоста.
package config
