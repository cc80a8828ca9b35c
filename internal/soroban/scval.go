package soroban

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/stellar/go/xdr"

	"github.com/vultisig/stellar-txcore/internal/address"
)

var ErrOutOfRange = errors.New("soroban: value out of i128 range")

var (
	two64     = new(big.Int).Lsh(big.NewInt(1), 64)
	two128    = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// ScvAddress builds an address value from its text form.
func ScvAddress(addr string) (xdr.ScVal, error) {
	a, err := address.Parse(addr)
	if err != nil {
		return xdr.ScVal{}, err
	}
	sc, err := address.ToScAddress(a)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &sc}, nil
}

// ScvI128 builds a signed 128-bit integer value.
func ScvI128(v *big.Int) (xdr.ScVal, error) {
	if v == nil {
		v = new(big.Int)
	}
	if v.Cmp(maxInt128) > 0 || v.Cmp(minInt128) < 0 {
		return xdr.ScVal{}, fmt.Errorf("%w: %s", ErrOutOfRange, v)
	}

	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo := new(big.Int).Mod(u, two64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	parts := xdr.Int128Parts{Hi: xdr.Int64(hi), Lo: xdr.Uint64(lo)}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil
}

func ScvU32(v uint32) xdr.ScVal {
	u := xdr.Uint32(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}
}

func ScvSymbol(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

// Int128 converts i128 parts to a big integer.
func Int128(p xdr.Int128Parts) *big.Int {
	v := new(big.Int).Lsh(big.NewInt(int64(p.Hi)), 64)
	return v.Add(v, new(big.Int).SetUint64(uint64(p.Lo)))
}

// AddressString renders an address value as text.
func AddressString(v xdr.ScVal) (string, error) {
	if v.Type != xdr.ScValTypeScvAddress || v.Address == nil {
		return "", fmt.Errorf("soroban: expected address value, got %s", v.Type)
	}
	a, err := address.FromScAddress(*v.Address)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}
