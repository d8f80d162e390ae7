package custody

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var vaultSeed = []byte("vault")

// VaultAddress derives the custody owner of a vault from its sequence number.
// Only the engine moves funds out of accounts owned by this address.
func VaultAddress(vaultCount uint64) common.Address {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], vaultCount)
	return common.BytesToAddress(crypto.Keccak256(vaultSeed, buf[:]))
}

// VaultAccount returns the custody account of a vault for the given mint.
func VaultAccount(mint common.Address, vaultCount uint64) Account {
	return Account{Mint: mint, Owner: VaultAddress(vaultCount)}
}
