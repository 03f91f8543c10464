package security

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("admin123")
	require.NoError(t, err)
	require.NotEqual(t, "admin123", hash)

	require.True(t, h.Verify("admin123", hash))
	require.False(t, h.Verify("admin124", hash))
	require.False(t, h.Verify("admin123", "not-a-hash"))
}

func TestTokenManager(t *testing.T) {
	t.Parallel()

	userID := uuid.Must(uuid.NewV4())
	m := NewTokenManager("secret", time.Hour)

	token, expiresAt, err := m.Issue(userID, "admin")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
		want    uuid.UUID
		errFn   require.ErrorAssertionFunc
	}{
		{
			name:    "valid",
			manager: m,
			token:   token,
			want:    userID,
			errFn:   require.NoError,
		},
		{
			name:    "wrong secret",
			manager: NewTokenManager("other", time.Hour),
			token:   token,
			errFn:   require.Error,
		},
		{
			name: "expired",
			manager: &TokenManager{
				secret: []byte("secret"),
				ttl:    time.Hour,
				now:    func() time.Time { return time.Now().Add(2 * time.Hour) },
			},
			token: token,
			errFn: require.Error,
		},
		{
			name:    "garbage",
			manager: m,
			token:   "abc.def.ghi",
			errFn:   require.Error,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.manager.Parse(tt.token)
			tt.errFn(t, err)

			if err != nil {
				require.ErrorIs(t, err, ErrInvalidToken)
				return
			}

			require.Equal(t, tt.want, got)
		})
	}
}
