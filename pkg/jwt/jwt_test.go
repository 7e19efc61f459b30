package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "admin", "costeo-api", time.Hour)
	require.NoError(t, err)

	claims, err := Parse("secreto", "costeo-api", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_Rechaza(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "admin", "costeo-api", time.Hour)
	require.NoError(t, err)
	expired, err := Generate("secreto", "u-1", "admin", "costeo-api", -time.Minute)
	require.NoError(t, err)

	cases := map[string]struct{ secret, issuer, token string }{
		"firma incorrecta": {"otro", "costeo-api", tok},
		"emisor distinto":  {"secreto", "otro-emisor", tok},
		"expirado":         {"secreto", "costeo-api", expired},
		"malformado":       {"secreto", "", "no-es-un-jwt"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(c.secret, c.issuer, c.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSecretVacio(t *testing.T) {
	_, err := Generate("", "u", "admin", "", time.Hour)
	assert.Error(t, err)
	_, err = Parse("", "", "x")
	assert.Error(t, err)
}
