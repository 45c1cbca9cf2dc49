package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListParams(t *testing.T) {
	q, err := url.ParseQuery("limit=10&offset=5&sort=-score,name&nulls=first&kind=person&kind=org&q= hi ")
	require.NoError(t, err)

	lp := parseListParams(q)
	assert.Equal(t, 10, lp.Limit)
	assert.Equal(t, 5, lp.Offset)
	assert.Equal(t, []SortKey{{Field: "score", Desc: true}, {Field: "name"}}, lp.Sort)
	assert.Equal(t, "first", lp.Nulls)
	assert.Equal(t, map[string][]string{"kind": {"person", "org"}}, lp.Filters)
	assert.Equal(t, "hi", lp.Q)
}

func TestParseListParamsDefaults(t *testing.T) {
	lp := parseListParams(url.Values{})
	assert.Equal(t, 50, lp.Limit)
	assert.Equal(t, 0, lp.Offset)
	assert.Empty(t, lp.Sort)
	assert.Equal(t, "last", lp.Nulls)

	// за пределами диапазона — дефолт
	lp = parseListParams(url.Values{"limit": {"100000"}, "offset": {"-3"}})
	assert.Equal(t, 50, lp.Limit)
	assert.Equal(t, 0, lp.Offset)

	// underscore-алиасы
	lp = parseListParams(url.Values{"_limit": {"7"}, "_sort": {"name"}})
	assert.Equal(t, 7, lp.Limit)
	assert.Equal(t, []SortKey{{Field: "name"}}, lp.Sort)
}

func TestFilterRows(t *testing.T) {
	rows := []map[string]any{
		{"name": "Alice", "kind": "person", "score": float64(3)},
		{"name": "Bob", "kind": "org"},
		{"name": "Carol", "kind": "person"},
	}

	out := filterRows(rows, ListParams{Filters: map[string][]string{"kind": {"person"}}})
	assert.Len(t, out, 2)

	// несколько значений фильтра — ИЛИ
	out = filterRows(rows, ListParams{Filters: map[string][]string{"name": {"Bob", "Carol"}}})
	assert.Len(t, out, 2)

	// числа сравниваются строковым представлением
	out = filterRows(rows, ListParams{Filters: map[string][]string{"score": {"3"}}})
	require.Len(t, out, 1)
	assert.Equal(t, "Alice", out[0]["name"])

	// q — подстрока без регистра по строковым значениям
	out = filterRows(rows, ListParams{Q: "ali"})
	require.Len(t, out, 1)
	assert.Equal(t, "Alice", out[0]["name"])
}

func TestSortRowsNullsPolicy(t *testing.T) {
	rows := []map[string]any{
		{"name": "a"},
		{"name": "b", "score": "2"},
		{"name": "c", "score": "1"},
	}

	sortRowsMultiNulls(rows, []SortKey{{Field: "score"}}, "last")
	assert.Equal(t, "c", rows[0]["name"])
	assert.Equal(t, "a", rows[2]["name"]) // null в конец

	sortRowsMultiNulls(rows, []SortKey{{Field: "score"}}, "first")
	assert.Equal(t, "a", rows[0]["name"])

	sortRowsMultiNulls(rows, []SortKey{{Field: "score", Desc: true}}, "last")
	assert.Equal(t, "b", rows[0]["name"])
	assert.Equal(t, "a", rows[2]["name"]) // nulls=last не зависит от направления
}
