package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePhone(t *testing.T) {
	t.Run("e164 without region", func(t *testing.T) {
		phone, err := ParsePhone("+14155552671", "")
		require.NoError(t, err)
		require.Equal(t, "+14155552671", phone.Number)
		require.Equal(t, "US", phone.Country)
		require.Equal(t, int32(1), phone.CallingCode)
	})

	t.Run("national with region", func(t *testing.T) {
		phone, err := ParsePhone("020 7946 0958", "GB")
		require.NoError(t, err)
		require.Equal(t, "+442079460958", phone.Number)
		require.Equal(t, "GB", phone.Country)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParsePhone("not-a-phone", "")
		require.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ParsePhone("+1415", "")
		require.ErrorIs(t, err, ErrInvalidPhone)
	})
}
