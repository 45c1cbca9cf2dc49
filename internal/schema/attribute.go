package schema

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// GetFn/SetFn — хуки трансформации на чтении/записи. Получают значение
// атрибута и shallow-снимок всего payload (для cross-attribute производных).
type GetFn func(value any, payload map[string]any) any
type SetFn func(value any, payload map[string]any) any

// ValidateFn — пользовательская проверка значения: (ok, причина).
type ValidateFn func(value any) (bool, string)

// Definition — полная форма определения атрибута. На границе допускаем и
// shorthand (имя типа строкой или []string для enum) — это нормализует Schema.
type Definition struct {
	Type     any    // string | []string | AttributeType
	Field    string // физическое имя в хранилище; пусто = совпадает с логическим
	Label    string
	Required bool
	ReadOnly bool
	Hide     bool
	Cast     string // "" | "string" | "number"
	Default  any    // значение или func() any — вызывается на каждое подставление
	Validate any    // nil | ValidateFn | func(any) (bool, string) | *regexp.Regexp
	Get      GetFn
	Set      SetFn
}

// Attribute — одно поле записи. После конструирования неизменяем: тип, каст,
// default, validate и get/set зафиксированы, меняются только значения payload.
type Attribute struct {
	Name       string
	Field      string
	Label      string
	Type       AttributeType
	EnumValues []string
	Required   bool
	ReadOnly   bool
	Hidden     bool
	Indexes    []string // членство в фасетах индексов, информационно

	cast       CastKind
	hasDefault bool
	defaultVal any
	validate   ValidateFn
	get        GetFn
	set        SetFn
}

// newAttribute собирает атрибут из смерженного определения.
// Все конструкционные проверки (тип, каст, validate) — здесь.
func newAttribute(name string, def Definition) (*Attribute, error) {
	typ, enumVals, err := resolveType(name, def.Type)
	if err != nil {
		return nil, err
	}

	cast, ok := parseCastKind(def.Cast)
	if !ok {
		return nil, &DefinitionError{
			Attribute: name,
			Detail:    fmt.Sprintf("unknown cast %q (allowed: string|number)", def.Cast),
		}
	}

	validate, err := resolveValidate(name, def.Validate)
	if err != nil {
		return nil, err
	}

	field := strings.TrimSpace(def.Field)
	if field == "" {
		field = name
	}

	return &Attribute{
		Name:       name,
		Field:      field,
		Label:      def.Label,
		Type:       typ,
		EnumValues: enumVals,
		Required:   def.Required,
		ReadOnly:   def.ReadOnly,
		Hidden:     def.Hide,
		cast:       cast,
		hasDefault: def.Default != nil,
		defaultVal: def.Default,
		validate:   validate,
		get:        def.Get,
		set:        def.Set,
	}, nil
}

// resolveType: строка = имя типа, []string = shorthand для enum.
func resolveType(name string, raw any) (AttributeType, []string, error) {
	switch t := raw.(type) {
	case AttributeType:
		return resolveType(name, string(t))
	case string:
		typ, ok := ParseAttributeType(t)
		if !ok {
			return "", nil, &DefinitionError{
				Attribute: name,
				Detail:    fmt.Sprintf("unknown type %q (allowed: %s)", t, joinTypes()),
			}
		}
		return typ, nil, nil
	case []string:
		if len(t) == 0 {
			return "", nil, &DefinitionError{Attribute: name, Detail: "enum shorthand has no values"}
		}
		return TypeEnum, append([]string(nil), t...), nil
	case nil:
		// тип не указан — по умолчанию string (как и в хранилище: text)
		return TypeString, nil, nil
	default:
		return "", nil, &DefinitionError{
			Attribute: name,
			Detail:    fmt.Sprintf("type must be a name or a value list, got %T", raw),
		}
	}
}

func resolveValidate(name string, raw any) (ValidateFn, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case ValidateFn:
		return v, nil
	case func(any) (bool, string):
		return v, nil
	case *regexp.Regexp:
		return func(value any) (bool, string) {
			s, ok := value.(string)
			if !ok {
				return false, fmt.Sprintf("value must be a string to match %s", v)
			}
			if !v.MatchString(s) {
				return false, fmt.Sprintf("value %q does not match %s", s, v)
			}
			return true, ""
		}, nil
	default:
		return nil, &DefinitionError{
			Attribute: name,
			Detail:    fmt.Sprintf("validate must be a function or a pattern, got %T", raw),
		}
	}
}

func joinTypes() string {
	parts := make([]string, 0, len(AttributeTypeNames))
	for _, t := range AttributeTypeNames {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, "|")
}

// ==== Пайплайн значения ====

// absent: ключа нет в payload ИЛИ значение — нетипизированный nil.
func isAbsent(v any) bool { return v == nil }

// Val применяет каст и, если результат absent, подставляет default.
func (a *Attribute) Val(raw any) (any, error) {
	v, err := a.castValue(raw)
	if err != nil {
		return nil, err
	}
	if isAbsent(v) && a.hasDefault {
		v = a.resolveDefault()
	}
	return v, nil
}

func (a *Attribute) resolveDefault() any {
	if fn, ok := a.defaultVal.(func() any); ok {
		return fn() // функция-default вызывается заново на каждое подставление
	}
	return a.defaultVal
}

func (a *Attribute) castValue(v any) (any, error) {
	switch a.cast {
	case CastNone:
		return v, nil
	case CastString:
		if isAbsent(v) {
			if a.hasDefault {
				return nil, nil // absent отработает default-путь в Val
			}
			return nil, &CastError{Attribute: a.Name, Reason: "cannot cast absent value to string"}
		}
		return castToString(v), nil
	case CastNumber:
		if isAbsent(v) {
			if a.hasDefault {
				return nil, nil
			}
			return nil, &CastError{Attribute: a.Name, Reason: "cannot cast absent value to number"}
		}
		n, ok := castToNumber(v)
		if !ok {
			return nil, &CastError{Attribute: a.Name, Reason: fmt.Sprintf("value %v is not a number", v)}
		}
		return n, nil
	}
	return v, nil
}

func castToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func castToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return t, true
	case float32:
		return castToNumber(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// IsValid гоняет встроенную проверку типа и пользовательский validate
// НЕЗАВИСИМО; обе причины склеиваются. Никогда не паникует: паника из
// пользовательского хука превращается в (false, сообщение).
func (a *Attribute) IsValid(v any) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			reason = fmt.Sprintf("%v", r)
		}
	}()

	typeOK, typeReason := a.isType(v)

	userOK := true
	userReason := ""
	if a.validate != nil && !isAbsent(v) {
		userOK, userReason = a.validate(v)
		if !userOK && userReason == "" {
			userReason = fmt.Sprintf("value for %q failed custom validation", a.Name)
		}
	}

	switch {
	case typeOK && userOK:
		return true, ""
	case !typeOK && !userOK:
		return false, typeReason + ", " + userReason
	case !typeOK:
		return false, typeReason
	default:
		return false, userReason
	}
}

// isType — встроенная политика проверки типа (спец-кастов нет).
func (a *Attribute) isType(v any) (bool, string) {
	if isAbsent(v) {
		if a.Required {
			return false, fmt.Sprintf("value for %q is required", a.Name)
		}
		return true, ""
	}

	if a.Type == TypeAny {
		return true, ""
	}
	return a.isTypeKnown(v)
}

func (a *Attribute) isTypeKnown(v any) (bool, string) {
	switch a.Type {
	case TypeEnum:
		// строго строка: число не совпадает со строковым кодом
		s, ok := v.(string)
		if !ok {
			return false, fmt.Sprintf("value for %q must be a string from enum %v", a.Name, a.EnumValues)
		}
		for _, ev := range a.EnumValues {
			if s == ev {
				return true, ""
			}
		}
		return false, fmt.Sprintf("value %v is not in enum %v", v, a.EnumValues)
	case TypeString:
		if _, ok := v.(string); ok {
			return true, ""
		}
		return false, fmt.Sprintf("value for %q must be a string", a.Name)
	case TypeNumber:
		if _, ok := castNumeric(v); ok {
			return true, ""
		}
		return false, fmt.Sprintf("value for %q must be a number", a.Name)
	case TypeBoolean:
		if _, ok := v.(bool); ok {
			return true, ""
		}
		return false, fmt.Sprintf("value for %q must be a boolean", a.Name)
	case TypeMap:
		if isMapValue(v) {
			return true, ""
		}
		return false, fmt.Sprintf("value for %q must be a map", a.Name)
	case TypeList:
		if isSequenceValue(v) {
			return true, ""
		}
		return false, fmt.Sprintf("value for %q must be a list", a.Name)
	case TypeSet:
		if isSequenceValue(v) || isSetValue(v) {
			return true, ""
		}
		return false, fmt.Sprintf("value for %q must be a set or a list", a.Name)
	}
	return true, ""
}

// числовой тип без коэрсинга строк: здесь строгая проверка, не каст
func castNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func isMapValue(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Map
}

func isSequenceValue(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// set-like: карта с пустыми структурами (map[T]struct{})
func isSetValue(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return false
	}
	return rv.Type().Elem() == reflect.TypeOf(struct{}{})
}

// GetValidate — единая точка входа для whole-record валидации:
// Val, затем IsValid; провал = ValidationError с именем атрибута.
func (a *Attribute) GetValidate(raw any) (any, error) {
	v, err := a.Val(raw)
	if err != nil {
		return nil, err
	}
	if ok, reason := a.IsValid(v); !ok {
		return nil, &ValidationError{Attribute: a.Name, Reason: reason}
	}
	return v, nil
}

// ApplyGet / ApplySet — pass-through, если хук не задан.
func (a *Attribute) ApplyGet(v any, payload map[string]any) any {
	if a.get == nil {
		return v
	}
	return a.get(v, payload)
}

func (a *Attribute) ApplySet(v any, payload map[string]any) any {
	if a.set == nil {
		return v
	}
	return a.set(v, payload)
}
