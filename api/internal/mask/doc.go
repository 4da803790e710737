// Package mask восстанавливает маску редактирования в полном разрешении
// из компактного битового представления, которое присылает WebApp-кисть.
//
// Пиксель маски всегда равен 0 или 255; 255 — область, которую бэкенд
// перерисовывает (Stability inpaint: белое — редактировать, чёрное — сохранить).
package mask
