package api

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"korob/internal/dsl"
	"korob/internal/facet"
	"korob/internal/reference"
	"korob/internal/schema"
)

// BuildSchema собирает schema.Schema из DSL-модели и справочников enum.
// Ошибки конструирования фатальны — с битой схемой не стартуем.
func BuildSchema(m *dsl.Model, enums map[string]reference.EnumDirectory) (*schema.Schema, error) {
	defs := make(map[string]any, len(m.Attributes))
	for _, a := range m.Attributes {
		def, err := buildDefinition(m, a, enums)
		if err != nil {
			return nil, err
		}
		defs[a.Name] = def
	}

	idx := make([]facet.Index, 0, len(m.Indexes))
	for _, d := range m.Indexes {
		idx = append(idx, facet.Index{Name: d.Name, PK: d.PK, SK: d.SK})
	}

	sch, err := schema.New(defs, facet.Build(idx))
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", m.Module, m.Name, err)
	}
	return sch, nil
}

func buildDefinition(m *dsl.Model, a dsl.AttributeDecl, enums map[string]reference.EnumDirectory) (schema.Definition, error) {
	def := schema.Definition{
		Field:    a.Options["field"],
		Label:    a.Options["label"],
		Required: optBool(a.Options, "required"),
		ReadOnly: optBool(a.Options, "readonly"),
		Hide:     optBool(a.Options, "hide"),
		Cast:     a.Options["cast"],
	}

	// тип: литеральный enum[...] — shorthand-списком,
	// enum=<catalog> — набор кодов из справочника
	switch {
	case len(a.Enum) > 0:
		def.Type = append([]string(nil), a.Enum...)
	case a.EnumRef != "":
		dir, ok := enums[a.EnumRef]
		if !ok {
			return def, fmt.Errorf("%s.%s: attribute %q references unknown enum catalog %q",
				m.Module, m.Name, a.Name, a.EnumRef)
		}
		codes := dir.Codes()
		if len(codes) == 0 {
			return def, fmt.Errorf("%s.%s: attribute %q: enum catalog %q is empty",
				m.Module, m.Name, a.Name, a.EnumRef)
		}
		def.Type = codes
	default:
		def.Type = a.Type
	}

	// default= приходит строкой — приводим к типу атрибута
	if dv, ok := a.Options["default"]; ok {
		v, err := coerceDefault(a.Type, dv)
		if err != nil {
			return def, fmt.Errorf("%s.%s: attribute %q: bad default %q: %w",
				m.Module, m.Name, a.Name, dv, err)
		}
		def.Default = v
	}

	// pattern= компилируем здесь, чтобы битый регэксп валил загрузку модели
	if p, ok := a.Options["pattern"]; ok {
		re, err := regexp.Compile(p)
		if err != nil {
			return def, fmt.Errorf("%s.%s: attribute %q: bad pattern: %w",
				m.Module, m.Name, a.Name, err)
		}
		def.Validate = re
	}

	return def, nil
}

func coerceDefault(typ, raw string) (any, error) {
	switch strings.ToLower(typ) {
	case "number":
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return n, nil
	case "boolean":
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("must be a boolean")
	default:
		// string/enum/any — строкой как есть; для map/set/list default из DSL не поддерживаем
		return raw, nil
	}
}

func optBool(opts map[string]string, key string) bool {
	return opts != nil && strings.EqualFold(opts[key], "true")
}
