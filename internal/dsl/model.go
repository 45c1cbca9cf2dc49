package dsl

// Model описывает одну модель данных из DSL
type Model struct {
	Module     string
	Name       string
	Attributes []AttributeDecl
	Indexes    []IndexDecl
}

// AttributeDecl описывает одно объявление атрибута
type AttributeDecl struct {
	Name    string
	Type    string            // string, number, boolean, any, map, set, list, enum
	Enum    []string          // литеральные значения enum[...], если есть
	EnumRef string            // enum=<catalog> — набор значений из справочника
	Options map[string]string // required, readonly, hide, field, label, default, cast, pattern
}

// IndexDecl — объявление индекса из блока keys:
// пустое имя = первичный индекс
type IndexDecl struct {
	Name string
	PK   []string
	SK   []string
}
