package facet

import "strings"

// Пакет facet — описание ключевых фасетов, которое потребляет schema.
// Кто и как решает топологию индексов — не наше дело: сюда приходит
// уже готовая декларация, мы лишь компилируем её в справочные таблицы.

// Ref — один компонент ключа: атрибут в составе конкретного индекса.
type Ref struct {
	Name    string // логическое имя атрибута
	Index   string // имя индекса ("" = первичный)
	KeyType string // "pk" | "sk"
}

// IndexFacets — все компоненты одного индекса.
type IndexFacets struct {
	All []Ref
}

// Use — членство атрибута в индексе (обратная сторона Ref).
type Use struct {
	Index   string
	KeyType string
}

// DeclaredAttribute — атрибут, объявленный фасетами; schema проверит,
// что каждый такой реально существует в карте атрибутов.
type DeclaredAttribute struct {
	Name string
	Type string // "pk" | "sk"
}

// Facets — полное описание для одной модели.
type Facets struct {
	Fields     []string              // зарезервированные физические имена композитных ключей
	ByIndex    map[string]IndexFacets // "" = первичный индекс
	ByAttr     map[string][]Use
	Labels     map[string]string
	Attributes []DeclaredAttribute
}

// Empty — модель без ключевых деклараций (все атрибуты обычные).
func Empty() Facets {
	return Facets{
		ByIndex: map[string]IndexFacets{},
		ByAttr:  map[string][]Use{},
		Labels:  map[string]string{},
	}
}

// Index — входная декларация одного индекса (из DSL-блока keys:).
type Index struct {
	Name string // "" = первичный
	PK   []string
	SK   []string
}

// Build компилирует декларации индексов в Facets.
// Физические имена композитных полей: "pk"/"sk" у первичного,
// "<name>_pk"/"<name>_sk" у вторичных.
func Build(indexes []Index) Facets {
	fc := Empty()

	seenField := map[string]struct{}{}
	addField := func(f string) {
		if _, ok := seenField[f]; ok {
			return
		}
		seenField[f] = struct{}{}
		fc.Fields = append(fc.Fields, f)
	}

	seenAttr := map[string]struct{}{}
	addRef := func(idx, keyType, attr string) {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			return
		}
		ref := Ref{Name: attr, Index: idx, KeyType: keyType}
		cur := fc.ByIndex[idx]
		cur.All = append(cur.All, ref)
		fc.ByIndex[idx] = cur
		fc.ByAttr[attr] = append(fc.ByAttr[attr], Use{Index: idx, KeyType: keyType})
		if _, ok := seenAttr[attr]; !ok {
			seenAttr[attr] = struct{}{}
			fc.Attributes = append(fc.Attributes, DeclaredAttribute{Name: attr, Type: keyType})
		}
	}

	for _, ix := range indexes {
		pkField, skField := CompositeFields(ix.Name)
		if len(ix.PK) > 0 {
			addField(pkField)
		}
		if len(ix.SK) > 0 {
			addField(skField)
		}
		for _, a := range ix.PK {
			addRef(ix.Name, "pk", a)
		}
		for _, a := range ix.SK {
			addRef(ix.Name, "sk", a)
		}
	}
	return fc
}

// CompositeFields — физические имена композитных колонок индекса.
func CompositeFields(index string) (pk, sk string) {
	if index == "" {
		return "pk", "sk"
	}
	n := strings.ToLower(strings.TrimSpace(index))
	return n + "_pk", n + "_sk"
}
