package network

import (
	"fmt"
	"strings"

	stellarnet "github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

type Name string

const (
	Public    Name = "PUBLIC"
	Testnet   Name = "TESTNET"
	Futurenet Name = "FUTURENET"
)

// StroopsPerLumen is the fixed scale between whole lumens and stroops.
const StroopsPerLumen = 10_000_000

// MinStartingBalance is the smallest create-account seed the network accepts,
// in stroops (1 XLM).
const MinStartingBalance int64 = 1 * StroopsPerLumen

// Details describes one Stellar network.
type Details struct {
	Name          Name
	DisplayName   string
	Passphrase    string
	HorizonURL    string
	SorobanRPCURL string
	FriendbotURL  string
}

var networks = map[Name]Details{
	Public: {
		Name:          Public,
		DisplayName:   "Main Net",
		Passphrase:    stellarnet.PublicNetworkPassphrase,
		HorizonURL:    "https://horizon.stellar.org",
		SorobanRPCURL: "https://mainnet.sorobanrpc.com",
	},
	Testnet: {
		Name:          Testnet,
		DisplayName:   "Test Net",
		Passphrase:    stellarnet.TestNetworkPassphrase,
		HorizonURL:    "https://horizon-testnet.stellar.org",
		SorobanRPCURL: "https://soroban-testnet.stellar.org",
		FriendbotURL:  "https://friendbot.stellar.org",
	},
	Futurenet: {
		Name:          Futurenet,
		DisplayName:   "Future Net",
		Passphrase:    stellarnet.FutureNetworkPassphrase,
		HorizonURL:    "https://horizon-futurenet.stellar.org",
		SorobanRPCURL: "https://rpc-futurenet.stellar.org",
		FriendbotURL:  "https://friendbot-futurenet.stellar.org",
	},
}

// Lookup resolves a network by name, ignoring case.
func Lookup(name string) (Details, error) {
	d, ok := networks[Name(strings.ToUpper(strings.TrimSpace(name)))]
	if !ok {
		return Details{}, fmt.Errorf("network: unknown network %q", name)
	}
	return d, nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name Name) Details {
	d, err := Lookup(string(name))
	if err != nil {
		panic(err)
	}
	return d
}

// IsMainnet reports whether name is the production network.
func IsMainnet(name Name) bool {
	return name == Public
}

func (d Details) IsMainnet() bool {
	return IsMainnet(d.Name)
}

// NetworkID is the SHA-256 of the passphrase; it domain-separates signatures
// and contract ids between networks.
func (d Details) NetworkID() [32]byte {
	return stellarnet.ID(d.Passphrase)
}

// NativeContractID returns the C-address of the lumen asset contract on this
// network.
func (d Details) NativeContractID() string {
	id, err := xdr.MustNewNativeAsset().ContractID(d.Passphrase)
	if err != nil {
		panic(err)
	}
	return strkey.MustEncode(strkey.VersionByteContract, id[:])
}
