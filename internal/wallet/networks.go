package wallet

import "fmt"

// networkNames maps chain ids to display names.
var networkNames = map[int64]string{
	1:        "Ethereum Mainnet",
	10:       "Optimism",
	56:       "BNB Smart Chain",
	137:      "Polygon",
	8453:     "Base",
	42161:    "Arbitrum One",
	43114:    "Avalanche C-Chain",
	11155111: "Sepolia Testnet",
}

// NetworkName returns the display name for a chain id.
func NetworkName(chainID int64) string {
	if name, ok := networkNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Network (%d)", chainID)
}
