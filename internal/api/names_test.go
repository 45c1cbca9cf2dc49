package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"korob/internal/dsl"
	"korob/internal/schema"
)

func storageWithFQNs(t *testing.T, fqns ...string) *Storage {
	t.Helper()
	s := &Storage{Schemas: map[string]*schema.Schema{}, Models: map[string]*dsl.Model{}}
	for _, fqn := range fqns {
		s.Schemas[fqn] = &schema.Schema{}
	}
	return s
}

func TestNormalizeModelName(t *testing.T) {
	s := storageWithFQNs(t, "crm.Contact", "billing.Invoice", "crm.Invoice")

	fqn, ok := s.NormalizeModelName("crm", "Contact")
	require.True(t, ok)
	assert.Equal(t, "crm.Contact", fqn)

	// регистронезависимо
	fqn, ok = s.NormalizeModelName("CRM", "contact")
	require.True(t, ok)
	assert.Equal(t, "crm.Contact", fqn)

	// без модуля — только если имя уникально
	fqn, ok = s.NormalizeModelName("", "contact")
	require.True(t, ok)
	assert.Equal(t, "crm.Contact", fqn)

	_, ok = s.NormalizeModelName("", "invoice")
	assert.False(t, ok) // неоднозначно

	_, ok = s.NormalizeModelName("crm", "Ghost")
	assert.False(t, ok)
	_, ok = s.NormalizeModelName("crm", "")
	assert.False(t, ok)
}
