package uniswapexchange

import (
	"github.com/ethereum/go-ethereum/common"
)

// Name is the artifact name of the exchange template.
const Name = "uniswap_exchange"

type ConstructorArgs struct {
	Owner common.Address
}

// Values returns the arguments in constructor order.
func (a ConstructorArgs) Values() []any {
	return []any{a.Owner}
}
