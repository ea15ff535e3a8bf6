// Package tlsprov выпускает TLS-сертификат для инстанса через
// certbot с nginx-плагином.
//
// Неудача выпуска не фатальна: инстанс остаётся доступен по
// обычному HTTP, решение о деградации принимает вызывающая сторона.
package tlsprov
