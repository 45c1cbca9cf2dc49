package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"korob/internal/dsl"
	"korob/internal/reference"
)

func testEnums() map[string]reference.EnumDirectory {
	return map[string]reference.EnumDirectory{
		"statuses": {
			Name: "statuses",
			Items: []reference.EnumItem{
				{Code: "new", Name: "Новый"},
				{Code: "closed", Name: "Закрыт"},
			},
		},
	}
}

func TestBuildSchemaResolvesEnumCatalog(t *testing.T) {
	m := &dsl.Model{
		Module: "crm",
		Name:   "Ticket",
		Attributes: []dsl.AttributeDecl{
			{Name: "status", Type: "enum", EnumRef: "statuses", Options: map[string]string{"default": "new"}},
		},
	}

	sch, err := BuildSchema(m, testEnums())
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "closed"}, sch.Attributes["status"].EnumValues)

	out, err := sch.CheckCreate(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "new", out["status"])

	_, err = sch.CheckCreate(map[string]any{"status": "reopened"})
	require.Error(t, err)
}

func TestBuildSchemaUnknownCatalog(t *testing.T) {
	m := &dsl.Model{
		Module: "crm",
		Name:   "Ticket",
		Attributes: []dsl.AttributeDecl{
			{Name: "status", Type: "enum", EnumRef: "ghosts"},
		},
	}
	_, err := BuildSchema(m, testEnums())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown enum catalog")
}

func TestBuildSchemaBadPattern(t *testing.T) {
	m := &dsl.Model{
		Module: "crm",
		Name:   "Ticket",
		Attributes: []dsl.AttributeDecl{
			{Name: "code", Type: "string", Options: map[string]string{"pattern": "["}},
		},
	}
	_, err := BuildSchema(m, testEnums())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad pattern")
}

func TestBuildSchemaCoercesDefaults(t *testing.T) {
	m := &dsl.Model{
		Module: "crm",
		Name:   "Ticket",
		Attributes: []dsl.AttributeDecl{
			{Name: "score", Type: "number", Options: map[string]string{"default": "2.5"}},
			{Name: "open", Type: "boolean", Options: map[string]string{"default": "yes"}},
		},
	}
	sch, err := BuildSchema(m, nil)
	require.NoError(t, err)

	out, err := sch.CheckCreate(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 2.5, out["score"])
	assert.Equal(t, true, out["open"])
}

func TestBuildSchemaRejectsBadDefault(t *testing.T) {
	m := &dsl.Model{
		Module: "crm",
		Name:   "Ticket",
		Attributes: []dsl.AttributeDecl{
			{Name: "score", Type: "number", Options: map[string]string{"default": "abc"}},
		},
	}
	_, err := BuildSchema(m, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad default")
}

func TestBuildSchemaWrapsEngineErrors(t *testing.T) {
	// фасет ссылается на несуществующий атрибут — ошибка несёт FQN модели
	m := &dsl.Model{
		Module: "crm",
		Name:   "Ticket",
		Attributes: []dsl.AttributeDecl{
			{Name: "status", Type: "string"},
		},
		Indexes: []dsl.IndexDecl{{Name: "", PK: []string{"ghost"}}},
	}
	_, err := BuildSchema(m, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm.Ticket")
	assert.Contains(t, err.Error(), "ghost")
}
