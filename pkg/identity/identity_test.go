package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsPrincipal(t *testing.T) {

	p, err := claimsPrincipal("fb-1", map[string]any{
		"email":       "ada@example.com",
		"given_name":  "Ada",
		"family_name": "Lovelace",
		"admin":       true,
	})
	require.NoError(t, err)
	assert.Equal(t, &Principal{Uid: "fb-1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", Admin: true}, p)

	p, err = claimsPrincipal("fb-2", map[string]any{"admin": "yes"})
	require.NoError(t, err)
	assert.False(t, p.Admin)
	assert.Empty(t, p.Email)

	_, err = claimsPrincipal("", nil)
	assert.Error(t, err)

}
