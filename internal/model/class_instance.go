package model

import (
	"time"

	"github.com/google/uuid"
)

type InstanceStatus string

const (
	InstanceStatusScheduled InstanceStatus = "scheduled"
	InstanceStatusOngoing   InstanceStatus = "ongoing"
	InstanceStatusCompleted InstanceStatus = "completed" // терминальный
	InstanceStatusCancelled InstanceStatus = "cancelled" // терминальный
)

// Допустимые переходы статуса. Из ongoing отмена невозможна:
// идущее занятие нельзя отменить задним числом.
var instanceTransitions = map[InstanceStatus][]InstanceStatus{
	InstanceStatusScheduled: {InstanceStatusOngoing, InstanceStatusCancelled},
	InstanceStatusOngoing:   {InstanceStatusCompleted},
}

// CanTransition проверяет допустим ли переход статуса
func CanTransition(from, to InstanceStatus) bool {
	for _, allowed := range instanceTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ClassInstance представляет одно конкретное занятие, доступное для записи.
// Описательные поля (Name, ClassType, InstructorName, Location, Notes)
// копируются из шаблона в момент материализации и дальше с ним не
// синхронизируются — до следующей регенерации.
type ClassInstance struct {
	ID              int64          `json:"id"`
	TemplateID      int64          `json:"template_id"` // слабая ссылка на шаблон, не владение
	GenerationID    uuid.UUID      `json:"generation_id"`
	Date            time.Time      `json:"date"` // только дата
	StartsAt        time.Time      `json:"starts_at"`
	EndsAt          time.Time      `json:"ends_at"`
	Capacity        int            `json:"capacity"`
	RegisteredIDs   []int64        `json:"registered_ids"`
	WaitlistIDs     []int64        `json:"waitlist_ids"`
	Status          InstanceStatus `json:"status"`
	PriceShareCents int64          `json:"price_share_cents"`
	Name            string         `json:"name"`
	ClassType       string         `json:"class_type"`
	InstructorName  string         `json:"instructor_name"`
	Location        string         `json:"location"`
	Notes           string         `json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsFull проверяет заполнено ли занятие
func (i *ClassInstance) IsFull() bool {
	return len(i.RegisteredIDs) >= i.Capacity
}
