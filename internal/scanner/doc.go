// Package scanner превращает поток кадров камеры или снимков в подтверждённые штрихкоды.
//
// Source отдаёт кадры, Decoder находит в кадре код, Debouncer принимает код только после
// заданного числа совпадений. Session связывает их для одного клиента, Manager держит
// не больше одной активной сессии на клиента.
package scanner
