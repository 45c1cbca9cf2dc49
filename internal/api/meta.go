package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaModelListItem struct {
	Module     string `json:"module"`
	Model      string `json:"model"`
	Attributes int    `json:"attributes"`
}

func MetaListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]metaModelListItem, 0, len(storage.Schemas))
		for fqn, sch := range storage.Schemas {
			mod, name := splitFQN(fqn)
			out = append(out, metaModelListItem{
				Module:     mod,
				Model:      name,
				Attributes: len(sch.Attributes),
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Module != out[j].Module {
				return out[i].Module < out[j].Module
			}
			return out[i].Model < out[j].Model
		})
		c.JSON(http.StatusOK, out)
	}
}

type metaAttribute struct {
	Name     string   `json:"name"`
	Field    string   `json:"field"`
	Type     string   `json:"type"`
	Label    string   `json:"label,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Required bool     `json:"required,omitempty"`
	ReadOnly bool     `json:"readonly,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Indexes  []string `json:"indexes,omitempty"`
}

type metaIndex struct {
	Name string   `json:"name"`
	PK   []string `json:"pk"`
	SK   []string `json:"sk,omitempty"`
}

type metaModel struct {
	Module      string            `json:"module"`
	Model       string            `json:"model"`
	Attributes  []metaAttribute   `json:"attributes"`
	Indexes     []metaIndex       `json:"indexes,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	ReadOnly    []string          `json:"readonly,omitempty"`
	Translation map[string]string `json:"translation,omitempty"` // логическое -> физическое
}

// GET /api/meta/:module/:model — описание модели из собранной схемы
func MetaModelHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]
		model := storage.Models[fqn]

		names := make([]string, 0, len(sch.Attributes))
		for name := range sch.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)

		attrs := make([]metaAttribute, 0, len(names))
		for _, name := range names {
			a := sch.Attributes[name]
			attrs = append(attrs, metaAttribute{
				Name:     a.Name,
				Field:    a.Field,
				Type:     string(a.Type),
				Label:    a.Label,
				Enum:     append([]string(nil), a.EnumValues...),
				Required: a.Required,
				ReadOnly: a.ReadOnly,
				Hidden:   a.Hidden,
				Indexes:  append([]string(nil), a.Indexes...),
			})
		}

		var indexes []metaIndex
		if model != nil {
			for _, ix := range model.Indexes {
				indexes = append(indexes, metaIndex{Name: ix.Name, PK: ix.PK, SK: ix.SK})
			}
		}

		m, name := splitFQN(fqn)
		c.JSON(http.StatusOK, metaModel{
			Module:      m,
			Model:       name,
			Attributes:  attrs,
			Indexes:     indexes,
			Labels:      sch.Labels(),
			ReadOnly:    sch.ReadOnly(),
			Translation: sch.TranslationForTable,
		})
	}
}

// GET /api/meta/catalogs/:name — справочник enum-значений
func MetaCatalogHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		dir, ok := storage.Enums[name]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name":  name,
			"items": dir.Items,
		})
	}
}

// splitFQN("module.Model") -> ("module","Model")
func splitFQN(fqn string) (string, string) {
	i := strings.IndexByte(fqn, '.')
	if i <= 0 || i >= len(fqn)-1 {
		return "", fqn
	}
	return fqn[:i], fqn[i+1:]
}
