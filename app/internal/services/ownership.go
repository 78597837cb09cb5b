package services

import "strings"

// IsOwner reports whether the verified claims include the wallet. Addresses
// compare case-insensitively; the original system mixed exact and folded
// comparison, one policy is applied everywhere here. Accounts tagged with a
// non-Solana chain never match.
func IsOwner(claims *IdentityClaims, walletAddress string) bool {
	if claims == nil || walletAddress == "" {
		return false
	}
	for _, account := range claims.LinkedAccounts {
		if account.Type != "wallet" {
			continue
		}
		if account.ChainType != "" && !strings.EqualFold(account.ChainType, "solana") {
			continue
		}
		if strings.EqualFold(account.Address, walletAddress) {
			return true
		}
	}
	return false
}

// RequireOwnership is the gate in front of every mutation.
func RequireOwnership(claims *IdentityClaims, walletAddress string) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if !IsOwner(claims, walletAddress) {
		return ErrNotOwner
	}
	return nil
}

// OwnedWallets returns the caller's linked Solana wallet addresses.
func OwnedWallets(claims *IdentityClaims) []string {
	if claims == nil {
		return nil
	}
	var wallets []string
	for _, account := range claims.LinkedAccounts {
		if account.Type != "wallet" || account.Address == "" {
			continue
		}
		if account.ChainType != "" && !strings.EqualFold(account.ChainType, "solana") {
			continue
		}
		wallets = append(wallets, account.Address)
	}
	return wallets
}
