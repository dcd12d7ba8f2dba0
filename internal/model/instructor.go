package model

import "time"

// Instructor — сотрудник, ведущий занятия. Полноценный CRUD по персоналу
// живёт вне этого ядра; здесь инструктор нужен только как источник
// отображаемого имени при материализации занятий.
type Instructor struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Specialty string    `json:"specialty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName возвращает имя для денормализации в занятия
func (i *Instructor) DisplayName() string {
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}
