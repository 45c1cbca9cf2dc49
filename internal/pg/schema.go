package pg

import (
	"fmt"
	"sort"
	"strings"

	"korob/internal/dsl"
	"korob/internal/facet"
	"korob/internal/schema"
)

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// элементарная плюрализация (достаточно для users, projects, ...)
func plural(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

// schema = module (lower), table = plural(model) с защитой keyword'ов
func safeSchema(module string) string { return strings.ToLower(module) }

func safeTable(model string) string {
	t := plural(model)
	t = strings.ToLower(t)
	if isReserved(t) {
		// помечаем «опасное» имя префиксом
		t = "m_" + t
	}
	return t
}

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// mapType — физический тип колонки по типу атрибута.
// Коллекции и any едут в jsonb, ключевые типы — в скаляры.
func mapType(t schema.AttributeType) (string, error) {
	switch t {
	case schema.TypeString:
		return "text", nil
	case schema.TypeNumber:
		return "double precision", nil
	case schema.TypeBoolean:
		return "boolean", nil
	case schema.TypeEnum:
		// пока как text; можно генерить enum types отдельно
		return "text", nil
	case schema.TypeAny, schema.TypeMap, schema.TypeSet, schema.TypeList:
		return "jsonb", nil
	default:
		return "", fmt.Errorf("unknown attribute type: %s", t)
	}
}

// GenerateDDL возвращает карту ключ -> SQL DDL (CREATE SCHEMA/TABLE + индексы).
// Колонки берём из СОБРАННОЙ схемы: физические имена полей, плюс композитные
// колонки ключей по декларациям индексов. Default'ы в DDL не едут — их
// подставляет движок до записи.
func GenerateDDL(models map[string]*dsl.Model, schemas map[string]*schema.Schema) (map[string]string, error) {
	out := make(map[string]string, 2)

	// стабильный порядок моделей
	keys := make([]string, 0, len(schemas))
	for k := range schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	seenSchemas := map[string]struct{}{}

	for _, fqnKey := range keys {
		sch := schemas[fqnKey]
		m := models[fqnKey]
		if m == nil {
			return nil, fmt.Errorf("%s: schema without model declaration", fqnKey)
		}

		mod := safeSchema(m.Module)
		tbl := safeTable(m.Name)

		// schema
		if _, ok := seenSchemas[mod]; !ok {
			fmt.Fprintf(&sb, "create schema if not exists %s;\n", sqlIdent(mod))
			seenSchemas[mod] = struct{}{}
		}

		// системные колонки
		var cols []string
		cols = append(cols, `"id" text primary key`)
		cols = append(cols, `"version" bigint not null`)
		cols = append(cols, `"created_at" timestamp with time zone not null`)
		cols = append(cols, `"updated_at" timestamp with time zone not null`)

		seen := map[string]struct{}{"id": {}, "version": {}, "created_at": {}, "updated_at": {}}

		// атрибуты — по физическим именам, в стабильном порядке логических
		names := make([]string, 0, len(sch.Attributes))
		for name := range sch.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			a := sch.Attributes[name]
			fieldLower := strings.ToLower(a.Field)
			if _, exists := seen[fieldLower]; exists {
				return nil, fmt.Errorf("%s: field %q duplicates a system column", fqnKey, a.Field)
			}
			seen[fieldLower] = struct{}{}

			typ, err := mapType(a.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", fqnKey, name, err)
			}

			null := "null"
			if a.Required {
				null = "not null"
			}
			cols = append(cols, fmt.Sprintf("%s %s %s", sqlIdent(a.Field), typ, null))
		}

		// композитные колонки ключей + индексы по декларациям
		type idxStmt struct {
			name   string
			unique bool
			cols   []string
		}
		var idxs []idxStmt
		for _, ix := range m.Indexes {
			pkField, skField := facet.CompositeFields(ix.Name)
			var idxCols []string
			if len(ix.PK) > 0 {
				if _, exists := seen[pkField]; !exists {
					seen[pkField] = struct{}{}
					cols = append(cols, fmt.Sprintf("%s text null", sqlIdent(pkField)))
				}
				idxCols = append(idxCols, sqlIdent(pkField))
			}
			if len(ix.SK) > 0 {
				if _, exists := seen[skField]; !exists {
					seen[skField] = struct{}{}
					cols = append(cols, fmt.Sprintf("%s text null", sqlIdent(skField)))
				}
				idxCols = append(idxCols, sqlIdent(skField))
			}
			if len(idxCols) == 0 {
				continue
			}
			idxName := strings.ToLower(m.Name) + "_key_uq"
			unique := ix.Name == "" // первичный индекс — уникальный
			if !unique {
				idxName = strings.ToLower(m.Name + "_" + ix.Name + "_ix")
			}
			idxs = append(idxs, idxStmt{name: idxName, unique: unique, cols: idxCols})
		}

		// CREATE TABLE
		fmt.Fprintf(&sb, "create table if not exists %s.%s (\n  %s\n);\n",
			sqlIdent(mod), sqlIdent(tbl), strings.Join(cols, ",\n  "))

		for _, ix := range idxs {
			kind := "index"
			if ix.unique {
				kind = "unique index"
			}
			fmt.Fprintf(&sb, "create %s if not exists %s on %s.%s(%s);\n",
				kind, sqlIdent(ix.name), sqlIdent(mod), sqlIdent(tbl), strings.Join(ix.cols, ", "))
		}
	}

	out["000_schemas_and_tables"] = sb.String()
	return out, nil
}
