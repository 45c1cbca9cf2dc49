package schema

import "strings"

// AttributeType — закрытый набор типов атрибута. Никаких "кастомных" типов:
// всё, что не из этого списка, режем на этапе конструирования схемы.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeNumber  AttributeType = "number"
	TypeBoolean AttributeType = "boolean"
	TypeEnum    AttributeType = "enum"
	TypeAny     AttributeType = "any"
	TypeMap     AttributeType = "map"
	TypeSet     AttributeType = "set"
	TypeList    AttributeType = "list"
)

// AttributeTypeNames — для сообщений об ошибках (стабильный порядок).
var AttributeTypeNames = []AttributeType{
	TypeString, TypeNumber, TypeBoolean, TypeEnum,
	TypeAny, TypeMap, TypeSet, TypeList,
}

// ParseAttributeType распознаёт имя типа (регистронезависимо).
func ParseAttributeType(s string) (AttributeType, bool) {
	t := AttributeType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AttributeTypeNames {
		if t == known {
			return known, true
		}
	}
	return "", false
}

// Keyable — может ли тип участвовать в ключевых фасетах индекса.
// Композитные/коллекционные типы в ключ не пускаем.
func (t AttributeType) Keyable() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeEnum:
		return true
	}
	return false
}

// CastKind — закрытый набор кастов значения перед валидацией.
type CastKind string

const (
	CastNone   CastKind = ""
	CastString CastKind = "string"
	CastNumber CastKind = "number"
)

func parseCastKind(s string) (CastKind, bool) {
	switch CastKind(strings.ToLower(strings.TrimSpace(s))) {
	case CastNone:
		return CastNone, true
	case CastString:
		return CastString, true
	case CastNumber:
		return CastNumber, true
	}
	return CastNone, false
}
