package identity

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func TestVerifier_Verify(t *testing.T) {
	id := uuid.New()

	valid, err := Sign(testSecret, id, "coach@club.ch", "kanva-test", "authenticated", time.Hour)
	require.NoError(t, err)

	expired, err := Sign(testSecret, id, "coach@club.ch", "kanva-test", "authenticated", -time.Hour)
	require.NoError(t, err)

	wrongSecret, err := Sign("another-secret-that-is-long-enough!!", id, "coach@club.ch", "kanva-test", "authenticated", time.Hour)
	require.NoError(t, err)

	wrongAudience, err := Sign(testSecret, id, "coach@club.ch", "kanva-test", "anon", time.Hour)
	require.NoError(t, err)

	notUUID, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: id.String()},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	v := NewVerifier(testSecret, WithIssuer("kanva-test"), WithAudience("authenticated"))

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: valid},
		{name: "valid with surrounding space", token: "  " + valid + " "},
		{name: "empty", token: "", wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong secret", token: wrongSecret, wantErr: true},
		{name: "wrong audience", token: wrongAudience, wantErr: true},
		{name: "subject is not a uuid", token: notUUID, wantErr: true},
		{name: "missing expiry", token: noExpiry, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, identity.ID)
			assert.Equal(t, "coach@club.ch", identity.Email)
			assert.WithinDuration(t, time.Now().Add(time.Hour), identity.ExpiresAt, time.Minute)
		})
	}
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_Leeway(t *testing.T) {
	id := uuid.New()
	token, err := Sign(testSecret, id, "", "", "", time.Minute)
	require.NoError(t, err)

	later := func() time.Time { return time.Now().Add(time.Minute + 10*time.Second) }

	_, err = NewVerifier(testSecret, WithClock(later)).Verify(token)
	assert.NoError(t, err, "within default leeway")

	_, err = NewVerifier(testSecret, WithClock(later), WithLeeway(0)).Verify(token)
	assert.Error(t, err)
}
