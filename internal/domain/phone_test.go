package domain_test

import (
	"testing"

	"github.com/mtandao-labs/hotspotpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMSISDN(t *testing.T) {
	t.Run("converts local 07 form", func(t *testing.T) {
		got, err := domain.NormalizeMSISDN("0712345678")

		require.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("converts local 01 form", func(t *testing.T) {
		got, err := domain.NormalizeMSISDN("0110123456")

		require.NoError(t, err)
		assert.Equal(t, "254110123456", got)
	})

	t.Run("accepts canonical form unchanged", func(t *testing.T) {
		got, err := domain.NormalizeMSISDN("254712345678")

		require.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("strips plus prefix and whitespace", func(t *testing.T) {
		got, err := domain.NormalizeMSISDN(" +254 712 345 678 ")

		require.NoError(t, err)
		assert.Equal(t, "254712345678", got)
	})

	t.Run("is idempotent", func(t *testing.T) {
		once, err := domain.NormalizeMSISDN("0712345678")
		require.NoError(t, err)

		twice, err := domain.NormalizeMSISDN(once)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, raw := range []string{
			"12345",
			"",
			"+44712345678",
			"07123456789",
			"25471234567",
			"0812345678",
			"notaphone",
		} {
			_, err := domain.NormalizeMSISDN(raw)

			assert.Error(t, err, "input %q", raw)
			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidPhoneNumber), "input %q", raw)
		}
	})
}
