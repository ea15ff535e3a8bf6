// Package render порождает три файла развёртывания из конфигурации:
// production.yaml приложения, сайт nginx и systemd unit.
//
// Рендеринг — чистая функция Config: один и тот же Config даёт
// байт-в-байт одинаковый результат. Значения, попадающие в чужой
// синтаксис, проверяются и экранируются средствами целевого формата:
// YAML — через yaml.Marshal, nginx и unit — через валидацию
// допустимых символов перед подстановкой.
//
// Запись файлов отделена от рендеринга: Render ничего не трогает на
// хосте, Write кладёт готовый набор по фиксированным путям.
package render
