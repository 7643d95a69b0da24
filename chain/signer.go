package chain

import (
	"errors"
	"fmt"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/go-bip39"
)

// SecretCoinType is the BIP-44 coin type of Secret Network accounts.
const SecretCoinType = 529

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Signer is the single account that signs relayer transactions on both chains.
// Both chains must share the coin type for one key to be valid on both.
type Signer struct {
	KeyName  string `yaml:"key-name" json:"key-name"`
	Mnemonic string `yaml:"mnemonic" json:"mnemonic"`
	CoinType uint32 `yaml:"coin-type" json:"coin-type"`
}

func (s Signer) Validate() error {
	if s.KeyName == "" {
		return errors.New("signer key-name must not be empty")
	}
	if !bip39.IsMnemonicValid(s.Mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// HDPath returns the derivation path of the signer's first account.
func (s Signer) HDPath() string {
	return hd.CreateHDPath(s.CoinType, 0, 0).String()
}

// Address returns the signer's bech32 account address under the given prefix.
func (s Signer) Address(prefix string) (string, error) {
	if !bip39.IsMnemonicValid(s.Mnemonic) {
		return "", ErrInvalidMnemonic
	}
	derived, err := hd.Secp256k1.Derive()(s.Mnemonic, "", s.HDPath())
	if err != nil {
		return "", fmt.Errorf("failed to derive key for %s: %w", s.KeyName, err)
	}
	priv := hd.Secp256k1.Generate()(derived)
	return sdk.Bech32ifyAddressBytes(prefix, priv.PubKey().Address())
}
