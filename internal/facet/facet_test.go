package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeFields(t *testing.T) {
	pk, sk := CompositeFields("")
	assert.Equal(t, "pk", pk)
	assert.Equal(t, "sk", sk)

	pk, sk = CompositeFields("ByOwner")
	assert.Equal(t, "byowner_pk", pk)
	assert.Equal(t, "byowner_sk", sk)
}

func TestBuild(t *testing.T) {
	fc := Build([]Index{
		{Name: "", PK: []string{"owner"}, SK: []string{"name"}},
		{Name: "bykind", PK: []string{"kind"}, SK: []string{"owner"}},
	})

	assert.Equal(t, []string{"pk", "sk", "bykind_pk", "bykind_sk"}, fc.Fields)

	primary := fc.ByIndex[""]
	require.Len(t, primary.All, 2)
	assert.Equal(t, Ref{Name: "owner", Index: "", KeyType: "pk"}, primary.All[0])
	assert.Equal(t, Ref{Name: "name", Index: "", KeyType: "sk"}, primary.All[1])

	assert.Equal(t, []Use{
		{Index: "", KeyType: "pk"},
		{Index: "bykind", KeyType: "sk"},
	}, fc.ByAttr["owner"])

	// каждый атрибут декларируется один раз, по первому вхождению
	assert.Equal(t, []DeclaredAttribute{
		{Name: "owner", Type: "pk"},
		{Name: "name", Type: "sk"},
		{Name: "kind", Type: "pk"},
	}, fc.Attributes)
}

func TestBuildSkipsBlankComponents(t *testing.T) {
	fc := Build([]Index{
		{Name: "", PK: []string{" owner ", ""}},
	})

	assert.Equal(t, []string{"pk"}, fc.Fields) // sk не объявлен — поля нет
	require.Len(t, fc.ByIndex[""].All, 1)
	assert.Equal(t, "owner", fc.ByIndex[""].All[0].Name)
}

func TestEmpty(t *testing.T) {
	fc := Empty()
	assert.Empty(t, fc.Fields)
	assert.NotNil(t, fc.ByIndex)
	assert.NotNil(t, fc.ByAttr)
	assert.NotNil(t, fc.Labels)
}
