package address

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_TotalAndExclusive(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for i := 0; i < 2000; i++ {
		var s string
		f.Fuzz(&s)

		a := Classify(s)
		require.NotNil(t, a, "%q", s)

		valid := IsValid(s)
		assert.Equal(t, a.Kind() != KindInvalid && a.Kind() != KindFederation, valid, "%q", s)
		if valid {
			assert.Equal(t, s, a.String(), "%q", s)
		}
		assert.Equal(t, a.Kind() == KindFederation, IsFederation(s), "%q", s)
	}
}

func TestMuxed_RoundTripProperty(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for i := 0; i < 500; i++ {
		var key [32]byte
		var id uint64
		f.Fuzz(&key)
		f.Fuzz(&id)

		base := Account{PublicKey: key}.String()
		muxed, err := Compose(base, id)
		require.NoError(t, err)
		assert.Equal(t, KindMuxed, Classify(muxed).Kind())

		gotBase, gotID, err := Decompose(muxed)
		require.NoError(t, err)
		assert.Equal(t, base, gotBase)
		assert.Equal(t, id, gotID)

		assert.True(t, IsSameAccount(muxed, base))
		assert.Equal(t, base, BaseAccount(muxed))

		sc, err := ToScAddress(Classify(muxed))
		require.NoError(t, err)
		back, err := FromScAddress(sc)
		require.NoError(t, err)
		assert.Equal(t, muxed, back.String())
	}
}
