package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIdentityIDDeterministic(t *testing.T) {
	a := DeriveIdentityID("salt-1", "alice@example.com")
	b := DeriveIdentityID("salt-1", "  Alice@Example.COM ")
	assert.Equal(t, a, b, "derivation must be case and whitespace insensitive")

	c := DeriveIdentityID("salt-2", "alice@example.com")
	assert.NotEqual(t, a, c, "different salts must yield different ids")

	d := DeriveIdentityID("salt-1", "bob@example.com")
	assert.NotEqual(t, a, d)
	assert.False(t, a.IsNil())
}

func TestParseIdentityID(t *testing.T) {
	id := DeriveIdentityID("salt", "alice@example.com")

	parsed, err := ParseIdentityID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseIdentityID("")
	assert.Error(t, err)

	_, err = ParseIdentityID("not-a-uuid")
	assert.Error(t, err)
}

func TestParseInvitationToken(t *testing.T) {
	_, err := ParseInvitationToken("")
	assert.Error(t, err)

	token, err := ParseInvitationToken("tok_abc")
	assert.NoError(t, err)
	assert.Equal(t, InvitationToken("tok_abc"), token)
}
