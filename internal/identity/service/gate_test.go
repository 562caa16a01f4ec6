package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxid/internal/identity/secrets"
	dErrors "voxid/pkg/domain-errors"
	"voxid/pkg/requestcontext"
	"voxid/pkg/testutil"
)

func TestLoginHappyPath(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	token, err := f.gate.Login(ctx, "A@X.com", "pw123456", "")
	require.NoError(t, err)

	claims, err := f.sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.LastLoginAt.IsZero())
}

func TestLoginFailures(t *testing.T) {
	f := newFixture()
	u := f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	_, err := f.gate.Login(ctx, "nobody@x.com", "pw123456", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = f.gate.Login(ctx, "a@x.com", "wrong", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSecret))

	_, err = f.gate.Login(ctx, "a@x.com", "pw123456", "ADMIN")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRoleMismatch))

	u.Active = false
	require.NoError(t, f.users.Update(ctx, u))
	_, err = f.gate.Login(ctx, "a@x.com", "pw123456", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInactive))
}

func TestVoiceLoginMatchAndMismatch(t *testing.T) {
	f := newFixture()
	f.extractor.vectors["owner"] = []float64{1, 0}
	f.extractor.vectors["impostor"] = []float64{0, 1}
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	require.NoError(t, f.gate.EnrollVoice(ctx, "a@x.com", audioSample("owner")))

	token, err := f.gate.VoiceLogin(ctx, "a@x.com", audioSample("owner"))
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Orthogonal vectors score 0: a clean mismatch, not a failure.
	_, err = f.gate.VoiceLogin(ctx, "a@x.com", audioSample("impostor"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVoiceMismatch))
}

func TestVoiceLoginRequiresEnrollment(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "pw123456", "USER")

	_, err := f.gate.VoiceLogin(context.Background(), "a@x.com", audioSample("owner"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVoiceAuthNotEnabled))
}

func TestLogoutRevokesPresentedTokenOnly(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	tokenA, err := f.gate.Login(ctx, "a@x.com", "pw123456", "")
	require.NoError(t, err)
	tokenB, err := f.gate.Login(ctx, "a@x.com", "pw123456", "")
	require.NoError(t, err)

	require.NoError(t, f.gate.Logout(testutil.AuthenticatedContext("a@x.com", tokenA, "")))

	_, err = f.sessions.Validate(ctx, tokenA)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenRevoked))
	_, err = f.sessions.Validate(ctx, tokenB)
	assert.NoError(t, err)

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.LastLogoutAt.IsZero())
}

func TestLogoutAllRevokesEveryToken(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "pw123456", "USER")
	past := requestcontext.WithTime(context.Background(), time.Now().Add(-time.Minute))

	tokenA, err := f.gate.Login(past, "a@x.com", "pw123456", "")
	require.NoError(t, err)
	tokenB, err := f.gate.Login(past, "a@x.com", "pw123456", "")
	require.NoError(t, err)

	require.NoError(t, f.gate.LogoutAll(testutil.AuthenticatedContext("a@x.com", tokenA, "")))

	_, err = f.sessions.Validate(context.Background(), tokenA)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenRevoked))
	_, err = f.sessions.Validate(context.Background(), tokenB)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenRevoked))

	// A fresh login issues a live token again.
	tokenC, err := f.gate.Login(context.Background(), "a@x.com", "pw123456", "")
	require.NoError(t, err)
	_, err = f.sessions.Validate(context.Background(), tokenC)
	assert.NoError(t, err)
}

func TestLogoutWithoutCaller(t *testing.T) {
	f := newFixture()

	err := f.gate.Logout(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNoAuthenticatedUser))

	err = f.gate.LogoutAll(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNoAuthenticatedUser))
}

func TestEnrollVoiceOverwrites(t *testing.T) {
	f := newFixture()
	f.extractor.vectors["first"] = []float64{1, 0}
	f.extractor.vectors["second"] = []float64{0, 1}
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	require.NoError(t, f.gate.EnrollVoice(ctx, "a@x.com", audioSample("first")))
	firstPrint, _ := f.users.FindByEmail(ctx, "a@x.com")

	// Raw enroll is an idempotent overwrite, no already-enabled guard.
	require.NoError(t, f.gate.EnrollVoice(ctx, "a@x.com", audioSample("second")))
	secondPrint, _ := f.users.FindByEmail(ctx, "a@x.com")

	assert.NotEqual(t, firstPrint.VoicePrint.Serial, secondPrint.VoicePrint.Serial)
	assert.True(t, secondPrint.VoiceAuthEnabled)
}

func TestEnableVoiceGuardsAgainstDoubleEnable(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := testutil.AuthenticatedContext("a@x.com", "some-token", "")

	require.NoError(t, f.gate.EnableVoice(ctx, audioSample("owner")))

	err := f.gate.EnableVoice(ctx, audioSample("owner"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVoiceAlreadyEnabled))
}

func TestDisableVoice(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := testutil.AuthenticatedContext("a@x.com", "some-token", "")

	require.NoError(t, f.gate.EnableVoice(ctx, audioSample("owner")))
	require.NoError(t, f.gate.DisableVoice(ctx))

	u, err := f.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.VoiceAuthEnabled)
	assert.True(t, u.VoicePrint.Empty())

	err = f.gate.DisableVoice(ctx)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVoiceAlreadyDisabled))
}

func TestVerifyVoiceHasNoLoginSideEffects(t *testing.T) {
	f := newFixture()
	f.extractor.vectors["owner"] = []float64{1, 0}
	f.extractor.vectors["impostor"] = []float64{0, 1}
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	require.NoError(t, f.gate.EnrollVoice(ctx, "a@x.com", audioSample("owner")))

	match, err := f.gate.VerifyVoice(ctx, "a@x.com", audioSample("owner"))
	require.NoError(t, err)
	assert.True(t, match)

	match, err = f.gate.VerifyVoice(ctx, "a@x.com", audioSample("impostor"))
	require.NoError(t, err)
	assert.False(t, match)

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.LastLoginAt.IsZero(), "standalone verification must not stamp a login")
}

func TestVerifyVoiceDimensionMismatch(t *testing.T) {
	f := newFixture()
	f.extractor.vectors["enroll"] = []float64{1, 0, 0}
	f.extractor.vectors["short"] = []float64{1, 0}
	f.seedUser("a@x.com", "pw123456", "USER")
	ctx := context.Background()

	require.NoError(t, f.gate.EnrollVoice(ctx, "a@x.com", audioSample("enroll")))

	_, err := f.gate.VerifyVoice(ctx, "a@x.com", audioSample("short"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDimensionMismatch))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	f.seedUser("a@x.com", "oldsecret", "USER")
	ctx := context.Background()

	require.NoError(t, f.gate.SendResetOTP(ctx, "a@x.com"))
	delivered := f.sender.last()
	assert.Equal(t, "reset", delivered.template)

	require.NoError(t, f.gate.ResetPassword(ctx, "a@x.com", delivered.code, "newsecret"))

	_, err := f.gate.Login(ctx, "a@x.com", "oldsecret", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSecret))
	_, err = f.gate.Login(ctx, "a@x.com", "newsecret", "")
	assert.NoError(t, err)

	// The code is spent and retired; replaying it fails.
	err = f.gate.ResetPassword(ctx, "a@x.com", delivered.code, "thirdsecret")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCode))
}

func TestSendResetOTPUnknownEmail(t *testing.T) {
	f := newFixture()

	err := f.gate.SendResetOTP(context.Background(), "nobody@x.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	u := f.seedUser("a@x.com", "pw123456", "USER")
	ctx := testutil.AuthenticatedContext("a@x.com", "some-token", "")

	token, err := f.gate.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "new@x.com", Secret: "fresh123"})
	require.NoError(t, err)

	claims, err := f.sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", claims.Subject)

	got, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", got.Email)
	assert.NoError(t, secrets.Verify("fresh123", got.SecretHash))
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	f := newFixture()
	f.seedUser("taken@x.com", "pw123456", "USER")
	u := f.seedUser("a@x.com", "pw123456", "USER")
	ctx := testutil.AuthenticatedContext("a@x.com", "some-token", "")

	_, err := f.gate.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "taken@x.com"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
}

func TestUpdateProfileInactive(t *testing.T) {
	f := newFixture()
	u := f.seedUser("a@x.com", "pw123456", "USER")
	u.Active = false
	require.NoError(t, f.users.Update(context.Background(), u))

	_, err := f.gate.UpdateProfile(testutil.AuthenticatedContext("a@x.com", "some-token", ""), u.ID, ProfileUpdate{Secret: "fresh123"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInactive))
}

func TestUpdateProfileRequiresCaller(t *testing.T) {
	f := newFixture()
	u := f.seedUser("a@x.com", "pw123456", "USER")

	_, err := f.gate.UpdateProfile(context.Background(), u.ID, ProfileUpdate{Secret: "fresh123"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNoAuthenticatedUser))
}

func TestUpdateProfileForbiddenForOtherCaller(t *testing.T) {
	f := newFixture()
	target := f.seedUser("a@x.com", "pw123456", "USER")
	f.seedUser("b@x.com", "pw123456", "MODERATOR")
	ctx := testutil.AuthenticatedContext("b@x.com", "some-token", "")

	_, err := f.gate.UpdateProfile(ctx, target.ID, ProfileUpdate{Role: "ADMIN"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	got, err := f.users.FindByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "USER", string(got.Role))
}

func TestUpdateProfileAdminMayUpdateAnyone(t *testing.T) {
	f := newFixture()
	target := f.seedUser("a@x.com", "pw123456", "USER")
	f.seedUser("root@x.com", "pw123456", "ADMIN")
	ctx := testutil.AuthenticatedContext("root@x.com", "some-token", "")

	_, err := f.gate.UpdateProfile(ctx, target.ID, ProfileUpdate{Role: "MODERATOR"})
	require.NoError(t, err)

	got, err := f.users.FindByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "MODERATOR", string(got.Role))
}

func TestFindByID(t *testing.T) {
	f := newFixture()
	u := f.seedUser("a@x.com", "pw123456", "USER")

	got, err := f.gate.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = f.gate.FindByID(context.Background(), uuid.New())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
