package reference

// EnumDirectory описывает один справочник значений enum-атрибутов
type EnumDirectory struct {
	Name  string     `yaml:"name"`
	Items []EnumItem `yaml:"items"`
}

type EnumItem struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	// Дополнительные поля: Order, ValidFrom, ValidTo и т.д.
	Order     int    `yaml:"order,omitempty"`
	ValidFrom string `yaml:"valid_from,omitempty"`
	ValidTo   string `yaml:"valid_to,omitempty"`
}

// Codes возвращает упорядоченный набор кодов — это и есть множество
// допустимых значений enum-атрибута, ссылающегося на справочник
func (d EnumDirectory) Codes() []string {
	out := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, it.Code)
	}
	return out
}
