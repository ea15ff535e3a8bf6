// Package database создаёт роль и базу PostgreSQL для приложения.
//
// Создание идёт через psql от имени пользователя postgres: локальный
// суперпользовательский доступ на Ubuntu работает только по peer-аутентификации,
// недоступной процессу root напрямую. После создания пакет проверяет
// результат по-настоящему: подключается через pgx по TCP от имени
// созданной роли и выполняет ping. Ошибка пароля или pg_hba
// обнаруживается здесь, а не при первом старте приложения.
package database
