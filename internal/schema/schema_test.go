package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"korob/internal/facet"
)

func contactFacets() facet.Facets {
	return facet.Build([]facet.Index{
		{Name: "", PK: []string{"owner"}, SK: []string{"name"}},
	})
}

func contactDefs() map[string]any {
	return map[string]any{
		"owner": Definition{Type: "string", Required: true},
		"name":  Definition{Type: "string", Required: true, Field: "display_name"},
		"email": Definition{Type: "string", Field: "email_addr"},
		"kind":  []string{"person", "org"},
		"note":  "string",
		"score": Definition{Type: "number", Default: float64(0)},
	}
}

func TestNewBuildsTranslations(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	assert.Equal(t, "display_name", s.TranslationForTable["name"])
	assert.Equal(t, "email_addr", s.TranslationForTable["email"])
	assert.Equal(t, "note", s.TranslationForTable["note"]) // field по умолчанию = имя

	// обратная таблица — строгая инверсия прямой
	for logical, field := range s.TranslationForTable {
		assert.Equal(t, logical, s.TranslationForRetrieval[field])
	}
}

func TestKeyAttributesForcedReadOnly(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	assert.True(t, s.Attributes["owner"].ReadOnly)
	assert.True(t, s.Attributes["name"].ReadOnly)
	assert.False(t, s.Attributes["email"].ReadOnly)
	assert.Equal(t, []string{"name", "owner"}, s.ReadOnly())
}

func TestKeyAttributesRecordIndexMembership(t *testing.T) {
	fc := facet.Build([]facet.Index{
		{Name: "", PK: []string{"owner"}},
		{Name: "byKind", PK: []string{"kind"}, SK: []string{"owner"}},
	})
	s, err := New(contactDefs(), fc)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "byKind"}, s.Attributes["owner"].Indexes)
	assert.Equal(t, []string{"byKind"}, s.Attributes["kind"].Indexes)
	assert.Nil(t, s.Attributes["email"].Indexes)
}

func TestReservedCompositeFieldsSkipped(t *testing.T) {
	defs := contactDefs()
	// атрибут, чьё имя совпадает с композитным псевдо-полем, молча выпадает
	defs["pk"] = Definition{Type: "string"}
	defs["shadow"] = Definition{Type: "string", Field: "sk"}

	s, err := New(defs, contactFacets())
	require.NoError(t, err)

	assert.NotContains(t, s.Attributes, "pk")
	assert.NotContains(t, s.Attributes, "shadow")
}

func TestKeyFacetErrorListsAllMissing(t *testing.T) {
	fc := facet.Build([]facet.Index{
		{Name: "", PK: []string{"ghost"}, SK: []string{"phantom"}},
	})
	_, err := New(contactDefs(), fc)

	var kfe *KeyFacetError
	require.ErrorAs(t, err, &kfe)
	assert.ElementsMatch(t, []string{"ghost", "phantom"}, kfe.Missing)
	assert.Contains(t, kfe.Error(), ErrInvalidKeyFacet)
}

func TestNonKeyableTypeInFacet(t *testing.T) {
	defs := contactDefs()
	defs["meta"] = Definition{Type: "map"}
	fc := facet.Build([]facet.Index{
		{Name: "", PK: []string{"meta"}},
	})

	_, err := New(defs, fc)
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "meta", de.Attribute)
	assert.Contains(t, de.Detail, "cannot participate")
}

func TestCollisionsBatched(t *testing.T) {
	defs := map[string]any{
		"alpha": Definition{Type: "string", Field: "shared"},
		"beta":  Definition{Type: "string", Field: "shared"},
		"gamma": Definition{Type: "string", Field: "other"},
		"delta": Definition{Type: "string", Field: "other"},
	}
	_, err := New(defs, facet.Empty())

	var ce *CollisionError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Collisions, 2)
	// имена обходятся сортированно: второй претендент и есть Attribute
	assert.Equal(t, FieldCollision{Attribute: "beta", Field: "shared", ClaimedBy: "alpha"}, ce.Collisions[0])
	assert.Equal(t, FieldCollision{Attribute: "gamma", Field: "other", ClaimedBy: "delta"}, ce.Collisions[1])
}

func TestFacetLabelOverridesAttributeLabel(t *testing.T) {
	defs := map[string]any{
		"owner": Definition{Type: "string", Label: "from attribute"},
		"email": Definition{Type: "string", Label: "E-mail"},
	}
	fc := facet.Build([]facet.Index{{Name: "", PK: []string{"owner"}}})
	fc.Labels["owner"] = "from facet"

	s, err := New(defs, fc)
	require.NoError(t, err)

	labels := s.Labels()
	assert.Equal(t, "from facet", labels["owner"])
	assert.Equal(t, "E-mail", labels["email"])
	assert.NotContains(t, labels, "note")
}

func TestCheckCreateTotal(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	out, err := s.CheckCreate(map[string]any{
		"owner": "u1",
		"name":  "Jane",
	})
	require.NoError(t, err)

	// запись тотальная: все атрибуты присутствуют, default подставлен
	assert.Equal(t, "u1", out["owner"])
	assert.Equal(t, float64(0), out["score"])
	require.Contains(t, out, "email")
	assert.Nil(t, out["email"])
	assert.Len(t, out, len(s.Attributes))
}

func TestCheckCreateRequiredFailure(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	_, err = s.CheckCreate(map[string]any{"owner": "u1"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Attribute)
}

func TestCheckUpdatePartial(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	out, err := s.CheckUpdate(map[string]any{"email": "a@b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "a@b"}, out) // остальное не трогаем

	// readonly в payload — фатально для всего вызова
	_, err = s.CheckUpdate(map[string]any{"email": "a@b", "owner": "u2"})
	var roe *ReadOnlyError
	require.ErrorAs(t, err, &roe)
	assert.Equal(t, "owner", roe.Attribute)

	// невалидное значение — фатально
	_, err = s.CheckUpdate(map[string]any{"kind": "robot"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "kind", ve.Attribute)
}

func TestTranslateToFields(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	out := s.TranslateToFields(map[string]any{
		"name":    "Jane",
		"email":   "a@b",
		"note":    nil,       // absent выбрасывается
		"unknown": "dropped", // без трансляции — молча мимо
	})

	assert.Equal(t, map[string]any{
		"display_name": "Jane",
		"email_addr":   "a@b",
	}, out)
}

func TestTranslateRoundTrip(t *testing.T) {
	s, err := New(contactDefs(), contactFacets())
	require.NoError(t, err)

	stored := s.TranslateToFields(map[string]any{"name": "Jane", "score": 5.0})

	back := map[string]any{}
	for field, v := range stored {
		back[s.TranslationForRetrieval[field]] = v
	}
	assert.Equal(t, map[string]any{"name": "Jane", "score": 5.0}, back)
}

func TestApplyGettersSetters(t *testing.T) {
	defs := map[string]any{
		"first": Definition{Type: "string"},
		"last": Definition{Type: "string", Get: func(v any, payload map[string]any) any {
			f, _ := payload["first"].(string)
			l, _ := v.(string)
			return f + " " + l
		}},
		"email": Definition{Type: "string", Set: func(v any, payload map[string]any) any {
			s, _ := v.(string)
			return s + "@example.com"
		}},
	}
	s, err := New(defs, facet.Empty())
	require.NoError(t, err)

	in := map[string]any{"first": "Jane", "last": "Smith", "email": "jane"}

	got := s.ApplyGetters(in)
	assert.Equal(t, "Jane Smith", got["last"])
	assert.Equal(t, "Smith", in["last"]) // вход не мутируется

	set := s.ApplySetters(in)
	assert.Equal(t, "jane@example.com", set["email"])
	assert.Equal(t, "jane", in["email"])
}

func TestExpandShorthandRejectsGarbage(t *testing.T) {
	var de *DefinitionError

	_, err := New(map[string]any{"x": nil}, facet.Empty())
	require.ErrorAs(t, err, &de)

	_, err = New(map[string]any{"x": 42}, facet.Empty())
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Detail, "definition must be")
}
