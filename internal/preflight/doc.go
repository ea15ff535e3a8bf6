// Package preflight отвечает на вопрос «существует ли ресурс на хосте».
//
// Checker — набор read-only предикатов (пакет установлен, пользователь
// существует, unit активен, сколько памяти и swap). Предикаты никогда
// не изменяют хост и безопасны для многократного вызова, поэтому
// каждый последующий шаг установки может решать через них, нужно ли
// действовать. Отсутствие ресурса — не ошибка, а сигнал «создать».
package preflight
