package schema

import (
	"fmt"
	"strings"
)

// Коды ошибок движка. Конструкционные — фатальны для сборки схемы,
// валидационные — возвращаются вызывающему вместе с именем атрибута.
const (
	ErrInvalidDefinition = "invalid_attribute_definition"
	ErrInvalidKeyFacet   = "invalid_key_facet_template"
	ErrFieldCollision    = "field_collision"
	ErrCast              = "cast_error"
	ErrValidation        = "invalid_value"
	ErrReadOnly          = "readonly_field"
)

// DefinitionError — битое определение атрибута (неизвестный тип/каст и т.п.).
// Фатально: схема не собирается.
type DefinitionError struct {
	Attribute string
	Detail    string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: attribute %q: %s", ErrInvalidDefinition, e.Attribute, e.Detail)
}

// KeyFacetError — фасет ссылается на несуществующие атрибуты.
// Собираем ВСЕ пропавшие имена в одно сообщение, не падаем на первом.
type KeyFacetError struct {
	Missing []string
}

func (e *KeyFacetError) Error() string {
	return fmt.Sprintf("%s: facets reference unknown attributes: %s",
		ErrInvalidKeyFacet, strings.Join(e.Missing, ", "))
}

// FieldCollision — два атрибута претендуют на одно физическое поле.
type FieldCollision struct {
	Attribute string // кто пришёл вторым
	Field     string
	ClaimedBy string // кто уже занял поле
}

// CollisionError — батч коллизий физических имён (всем скопом).
type CollisionError struct {
	Collisions []FieldCollision
}

func (e *CollisionError) Error() string {
	parts := make([]string, 0, len(e.Collisions))
	for _, c := range e.Collisions {
		parts = append(parts, fmt.Sprintf("attribute %q maps to field %q already used by %q",
			c.Attribute, c.Field, c.ClaimedBy))
	}
	return ErrFieldCollision + ": " + strings.Join(parts, "; ")
}

// CastError — значение не приводится кастом (absent без default, NaN и т.п.).
type CastError struct {
	Attribute string
	Reason    string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("%s: attribute %q: %s", ErrCast, e.Attribute, e.Reason)
}

// ValidationError — провал валидации значения. Восстановимо на стороне
// вызывающего: имя атрибута + человекочитаемая причина.
type ValidationError struct {
	Attribute string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: attribute %q: %s", ErrValidation, e.Attribute, e.Reason)
}

// ReadOnlyError — попытка изменить readonly/ключевой атрибут на update.
type ReadOnlyError struct {
	Attribute string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s: attribute %q is read-only", ErrReadOnly, e.Attribute)
}
