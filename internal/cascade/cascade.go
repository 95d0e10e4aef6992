// Package cascade выполняет многошаговое каскадное удаление: сначала
// зависимые строки, затем корневая сущность. Шаги выполняются строго
// по порядку, без отката уже выполненных шагов. Каждый шаг обязан быть
// идемпотентным (удаление по id родителя — no-op на пустом наборе),
// поэтому прерванную последовательность можно безопасно запустить заново.
package cascade

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// Step — один шаг каскада. Name попадает в лог и в текст ошибки.
type Step struct {
	Name string
	Run  func(db *gorm.DB) error
}

// Execute последовательно выполняет шаги. Первый неуспешный шаг прерывает
// последовательность; ошибка оборачивается именем шага. Компенсации нет:
// частично удаленное состояние допустимо и устраняется повторным запуском.
func Execute(db *gorm.DB, target string, steps []Step) error {
	for _, step := range steps {
		if err := step.Run(db); err != nil {
			slog.Error("Cascade step failed", "target", target, "step", step.Name, "error", err)
			return fmt.Errorf("шаг '%s': %w", step.Name, err)
		}
		slog.Info("Cascade step completed", "target", target, "step", step.Name)
	}
	return nil
}
