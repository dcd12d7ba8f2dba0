package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecurrence — синтаксически валидный recurring-шаблон,
	// который не даёт ни одного занятия в своём горизонте
	ErrInvalidRecurrence = errors.New("recurrence yields no occurrences")

	ErrTemplateNotFound   = errors.New("schedule template not found")
	ErrInstanceNotFound   = errors.New("class instance not found")
	ErrInstructorNotFound = errors.New("instructor not found")

	// ErrInvalidTransition — недопустимый переход статуса занятия
	ErrInvalidTransition = errors.New("invalid instance status transition")

	// ErrVersionConflict — параллельная регенерация того же шаблона
	ErrVersionConflict = errors.New("template version conflict")
)

// ValidationError описывает некорректное поле шаблона,
// отклонённое до любой генерации и записи
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// SurvivingSet указывает какой набор занятий остался в базе после
// неудачной регенерации
type SurvivingSet string

const (
	SurvivingPrevious    SurvivingSet = "previous"
	SurvivingReplacement SurvivingSet = "replacement"
)

// RegenerationError — сбой записи при регенерации.
// Всегда сообщает вызывающему, какой из двух наборов занятий уцелел:
// смешанного состояния не бывает, замена выполняется в одной транзакции.
type RegenerationError struct {
	TemplateID int64
	Surviving  SurvivingSet
	Err        error
}

func (e *RegenerationError) Error() string {
	return fmt.Sprintf("regeneration of template %d failed (%s instance set intact): %v", e.TemplateID, e.Surviving, e.Err)
}

func (e *RegenerationError) Unwrap() error {
	return e.Err
}
