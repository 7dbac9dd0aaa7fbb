package wallet

import (
	"fmt"
	"strings"
)

type Network string

const (
	NetworkTestnet Network = "testnet"
	NetworkMainnet Network = "mainnet"
)

const (
	testnetChainID = "f16b1833c747c43682f4386fca9cbb327929334a762755ebec17f6f23c9b8a12"
	mainnetChainID = "1064487b3cd1a897ce03ae5b6a865651747e2e152090f99c1d19d44e01aea5a4"

	testnetRPCEndpoint = "https://testnet.waxsweden.org"
	mainnetRPCEndpoint = "https://wax.greymass.com"
)

// ParseNetwork accepts "testnet"/"test" and "mainnet"/"main".
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "testnet", "test", "":
		return NetworkTestnet, nil
	case "mainnet", "main":
		return NetworkMainnet, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}

func (n Network) ChainID() string {
	if n == NetworkMainnet {
		return mainnetChainID
	}
	return testnetChainID
}

func (n Network) DefaultRPCEndpoint() string {
	if n == NetworkMainnet {
		return mainnetRPCEndpoint
	}
	return testnetRPCEndpoint
}
