package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "voxid/pkg/domain-errors"
)

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	codec := NewCodec("test-signing-key", "voxid")

	token, jti, err := codec.Generate("a@x.com", time.Now(), 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := codec.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "voxid", claims.Issuer)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	codec := NewCodec("test-signing-key", "voxid")

	token, _, err := codec.Generate("a@x.com", time.Now().Add(-48*time.Hour), 24*time.Hour)
	require.NoError(t, err)

	_, err = codec.Validate(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenExpired))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	signer := NewCodec("signing-key-one", "voxid")
	verifier := NewCodec("signing-key-two", "voxid")

	token, _, err := signer.Generate("a@x.com", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func TestValidateRejectsGarbage(t *testing.T) {
	codec := NewCodec("test-signing-key", "voxid")

	_, err := codec.Validate("not.a.token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func TestSubjectShortcut(t *testing.T) {
	codec := NewCodec("test-signing-key", "voxid")

	token, _, err := codec.Generate("b@x.com", time.Now(), time.Hour)
	require.NoError(t, err)

	subject, err := codec.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", subject)
}

func TestDistinctTokensGetDistinctIDs(t *testing.T) {
	codec := NewCodec("test-signing-key", "voxid")

	_, jtiA, err := codec.Generate("a@x.com", time.Now(), time.Hour)
	require.NoError(t, err)
	_, jtiB, err := codec.Generate("a@x.com", time.Now(), time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, jtiA, jtiB)
}
