package schema

import (
	"fmt"
	"sort"

	"korob/internal/facet"
)

// Schema — полный набор атрибутов одной модели плюс таблицы трансляции
// логическое имя <-> физическое поле. Собирается один раз и дальше
// неизменяем, так что безопасно шарится между конкурентными вызовами.
type Schema struct {
	Attributes              map[string]*Attribute
	TranslationForTable     map[string]string // логическое -> физическое
	TranslationForRetrieval map[string]string // физическое -> логическое

	// Enums — зарезервированный слот агрегации. Нормализация его не
	// заполняет; не выпиливать и не додумывать поведение.
	Enums map[string][]string
}

// New собирает схему из сырых определений атрибутов и описания фасетов.
// Сырое определение: Definition, *Definition, имя типа строкой или
// []string (shorthand для enum).
func New(defs map[string]any, fc facet.Facets) (*Schema, error) {
	s := &Schema{
		Attributes:              make(map[string]*Attribute, len(defs)),
		TranslationForTable:     make(map[string]string, len(defs)),
		TranslationForRetrieval: make(map[string]string, len(defs)),
		Enums:                   map[string][]string{},
	}

	reserved := make(map[string]struct{}, len(fc.Fields))
	for _, f := range fc.Fields {
		reserved[f] = struct{}{}
	}

	// атрибуты первичного ключа: "all"-фасеты безымянного индекса
	primary := map[string]struct{}{}
	for _, ref := range fc.ByIndex[""].All {
		primary[ref.Name] = struct{}{}
	}

	// стабильный порядок — чтобы ошибки были воспроизводимы
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	var collisions []FieldCollision

	for _, name := range names {
		def, err := expandShorthand(name, defs[name])
		if err != nil {
			return nil, err
		}

		field := def.Field
		if field == "" {
			field = name
		}

		// композитные псевдо-поля ключей управляются снаружи —
		// самостоятельными атрибутами не становятся
		if _, ok := reserved[name]; ok {
			continue
		}
		if _, ok := reserved[field]; ok {
			continue
		}

		if _, isKey := primary[name]; isKey {
			def.ReadOnly = true // ключи менять нельзя
		}
		if label, ok := fc.Labels[name]; ok {
			def.Label = label // фасетный label перекрывает атрибутный
		}

		attr, err := newAttribute(name, def)
		if err != nil {
			return nil, err
		}

		uses := fc.ByAttr[name]
		if len(uses) > 0 {
			if !attr.Type.Keyable() {
				return nil, &DefinitionError{
					Attribute: name,
					Detail: fmt.Sprintf("type %q cannot participate in index facets (allowed: %s|%s|%s|%s)",
						attr.Type, TypeString, TypeNumber, TypeBoolean, TypeEnum),
				}
			}
			for _, u := range uses {
				attr.Indexes = append(attr.Indexes, u.Index)
			}
		}

		if owner, taken := s.TranslationForRetrieval[attr.Field]; taken {
			collisions = append(collisions, FieldCollision{
				Attribute: name,
				Field:     attr.Field,
				ClaimedBy: owner,
			})
			continue
		}

		s.TranslationForTable[name] = attr.Field
		s.TranslationForRetrieval[attr.Field] = name
		s.Attributes[name] = attr
	}

	// каждая фасетная ссылка обязана разрешиться в реальный атрибут
	var missing []string
	for _, fa := range fc.Attributes {
		if _, ok := s.Attributes[fa.Name]; !ok {
			missing = append(missing, fa.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &KeyFacetError{Missing: missing}
	}

	if len(collisions) > 0 {
		return nil, &CollisionError{Collisions: collisions}
	}

	return s, nil
}

// expandShorthand нормализует сырое определение к полной форме.
func expandShorthand(name string, raw any) (Definition, error) {
	switch d := raw.(type) {
	case Definition:
		return d, nil
	case *Definition:
		if d == nil {
			return Definition{}, &DefinitionError{Attribute: name, Detail: "nil definition"}
		}
		return *d, nil
	case string:
		return Definition{Type: d}, nil
	case []string:
		return Definition{Type: d}, nil
	case AttributeType:
		return Definition{Type: d}, nil
	case nil:
		return Definition{}, &DefinitionError{Attribute: name, Detail: "nil definition"}
	default:
		return Definition{}, &DefinitionError{
			Attribute: name,
			Detail:    fmt.Sprintf("definition must be a type name, a value list or a Definition, got %T", raw),
		}
	}
}

// ==== Whole-record операции ====

// Labels — имя атрибута -> label (только у кого label объявлен).
func (s *Schema) Labels() map[string]string {
	out := map[string]string{}
	for name, a := range s.Attributes {
		if a.Label != "" {
			out[name] = a.Label
		}
	}
	return out
}

// ApplyGetters прогоняет get-хуки по всем совпавшим ключам payload.
// Вход не мутируется: работаем на shallow-копии.
func (s *Schema) ApplyGetters(payload map[string]any) map[string]any {
	out := clonePayload(payload)
	snapshot := clonePayload(payload)
	for k, v := range out {
		if a, ok := s.Attributes[k]; ok {
			out[k] = a.ApplyGet(v, snapshot)
		}
	}
	return out
}

// ApplySetters — симметрично, с set-хуками.
func (s *Schema) ApplySetters(payload map[string]any) map[string]any {
	out := clonePayload(payload)
	snapshot := clonePayload(payload)
	for k, v := range out {
		if a, ok := s.Attributes[k]; ok {
			out[k] = a.ApplySet(v, snapshot)
		}
	}
	return out
}

// TranslateToFields — новая карта под физическими именами полей.
// Absent-значения выбрасываем (хранилище не получает явных "пусто"),
// ключи без трансляции молча опускаем.
func (s *Schema) TranslateToFields(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if isAbsent(v) {
			continue
		}
		field, ok := s.TranslationForTable[k]
		if !ok {
			continue
		}
		out[field] = v
	}
	return out
}

// CheckCreate валидирует payload на создание: тотально по ВСЕМ атрибутам
// схемы, не только присланным — так всплывают required без default и
// отрабатывают default-подстановки. Либо полностью валидная запись, либо ошибка.
func (s *Schema) CheckCreate(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.Attributes))
	for _, name := range s.sortedNames() {
		v, err := s.Attributes[name].GetValidate(payload[name])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// CheckUpdate — частичная семантика: атрибуты вне payload пропускаем;
// присланный readonly/ключевой — фатально для всего вызова.
func (s *Schema) CheckUpdate(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for _, name := range s.sortedNames() {
		attr := s.Attributes[name]
		raw, present := payload[name]
		if !present {
			continue
		}
		if attr.ReadOnly {
			return nil, &ReadOnlyError{Attribute: name}
		}
		v, err := attr.GetValidate(raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// ReadOnly — имена атрибутов, закрытых на запись (явно или через ключ).
func (s *Schema) ReadOnly() []string {
	var out []string
	for _, name := range s.sortedNames() {
		if s.Attributes[name].ReadOnly {
			out = append(out, name)
		}
	}
	return out
}

func (s *Schema) sortedNames() []string {
	names := make([]string, 0, len(s.Attributes))
	for name := range s.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clonePayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
