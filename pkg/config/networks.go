package config

import (
	"fmt"
	"math/big"
	"net"
	"strconv"
	"strings"
)

const (
	Development = "development"
	Ropsten     = "ropsten"
	Mainnet     = "mainnet"
	RSKTestnet  = "rskTestnet"
	RSK         = "rsk"
)

// AnyNetwork as a NetworkID accepts whatever chain id the node reports.
const AnyNetwork uint64 = 0

// DefaultGasLimit is the gas allowance attached to every transaction.
const DefaultGasLimit uint64 = 6_721_975

type network struct {
	host      string
	port      uint16
	url       string
	networkID uint64
	signing   bool
	// infura endpoints take the access token as the last path segment
	infura bool
}

var networks = map[string]network{
	Development: {host: "127.0.0.1", port: 8545, networkID: AnyNetwork},
	Ropsten:     {url: "https://ropsten.infura.io/", networkID: 3, signing: true, infura: true},
	Mainnet:     {url: "https://mainnet.infura.io/", networkID: 1, signing: true, infura: true},
	RSKTestnet:  {url: "https://public-node.testnet.rsk.co", networkID: AnyNetwork, signing: true},
	RSK:         {url: "https://public-node.rsk.co", networkID: AnyNetwork, signing: true},
}

// Names returns the recognized network names in a stable order.
func Names() []string {
	return []string{Development, Ropsten, Mainnet, RSKTestnet, RSK}
}

// NetworkProfile describes where and how migration transactions are sent.
type NetworkProfile struct {
	Name string
	// Host and Port are set for networks reached through a local node.
	Host string
	Port uint16
	// URL is set for networks reached through a hosted RPC endpoint.
	URL       string
	NetworkID uint64
	// GasPrice is nil when the node picks the price.
	GasPrice *big.Int
	GasLimit uint64
	// Signing profiles sign locally with a mnemonic-derived key; the others
	// use the node's unlocked accounts.
	Signing bool

	mnemonic    string
	accessToken string
	infura      bool
}

// Endpoint returns the JSON-RPC endpoint of the profile.
func (p NetworkProfile) Endpoint() string {
	if p.URL != "" {
		return p.URL
	}
	return "http://" + net.JoinHostPort(p.Host, strconv.Itoa(int(p.Port)))
}

// RedactedEndpoint is Endpoint with the access token masked, for logs.
func (p NetworkProfile) RedactedEndpoint() string {
	ep := p.Endpoint()
	if p.infura && p.accessToken != "" {
		return strings.Replace(ep, p.accessToken, "<redacted>", 1)
	}
	return ep
}

func (p NetworkProfile) AcceptsAnyNetwork() bool {
	return p.NetworkID == AnyNetwork
}

// Mnemonic returns the seed phrase used to derive the signing key.
func (p NetworkProfile) Mnemonic() string {
	return p.mnemonic
}

// Validate checks that the secrets the profile needs are present. It makes no
// network calls.
func (p NetworkProfile) Validate() error {
	if p.Signing && p.mnemonic == "" {
		return &ConfigurationError{Network: p.Name, Err: ErrMissingMnemonic}
	}
	if p.infura && p.accessToken == "" {
		return &ConfigurationError{Network: p.Name, Err: ErrMissingAccessToken}
	}
	return nil
}

func (p NetworkProfile) String() string {
	id := "*"
	if !p.AcceptsAnyNetwork() {
		id = strconv.FormatUint(p.NetworkID, 10)
	}
	gasPrice := "node"
	if p.GasPrice != nil {
		gasPrice = p.GasPrice.String()
	}
	return fmt.Sprintf("%s endpoint=%s network_id=%s gas_price=%s gas_limit=%d signing=%t",
		p.Name, p.RedactedEndpoint(), id, gasPrice, p.GasLimit, p.Signing)
}

// Resolver maps network names to profiles. It is safe for concurrent use; it
// never mutates its inputs.
type Resolver struct {
	cfg       Config
	overrides *TOMLConfig
}

// NewResolver returns a Resolver. overrides may be nil.
func NewResolver(cfg Config, overrides *TOMLConfig) *Resolver {
	return &Resolver{cfg: cfg, overrides: overrides}
}

func (r *Resolver) Resolve(name string) (NetworkProfile, error) {
	n, ok := networks[name]
	if !ok {
		return NetworkProfile{}, &UnknownNetworkError{Name: name}
	}

	p := NetworkProfile{
		Name:        name,
		Host:        n.host,
		Port:        n.port,
		URL:         n.url,
		NetworkID:   n.networkID,
		GasLimit:    DefaultGasLimit,
		Signing:     n.signing,
		mnemonic:    r.cfg.Mnemonic,
		accessToken: r.cfg.InfuraAccessToken,
		infura:      n.infura,
	}
	if n.infura {
		p.URL = n.url + r.cfg.InfuraAccessToken
	}
	if n.signing {
		p.GasPrice = r.cfg.GasPrice()
	}

	if r.overrides != nil {
		if o, ok := r.overrides.Networks[name]; ok && o != nil {
			o.applyTo(&p)
		}
	}
	return p, nil
}
