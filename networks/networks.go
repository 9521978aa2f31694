package networks

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/streamingfast/defi-subgraphs/pricing"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed networks.yaml
var defaultRegistry []byte

var ErrUnknownDeployment = errors.New("unknown deployment")

// Config is everything an indexer needs to know about one protocol on one
// network.
type Config struct {
	Protocol string `yaml:"-"`
	Network  string `yaml:"-"`

	Name                     string        `yaml:"name"`
	Slug                     string        `yaml:"slug"`
	SchemaVersion            string        `yaml:"schemaVersion"`
	DefaultPerformanceFeeBps int64         `yaml:"defaultPerformanceFeeBps"`
	Vaults                   []VaultSource `yaml:"vaults"`

	Pricing pricing.Config `yaml:"-"`
}

type VaultSource struct {
	Address    string `yaml:"address"`
	StartBlock uint64 `yaml:"startBlock"`
	Rewarder   string `yaml:"rewarder,omitempty"`
}

// StartBlock is the earliest block any vault of the deployment is active.
func (c *Config) StartBlock() uint64 {
	var start uint64
	for i, vault := range c.Vaults {
		if i == 0 || vault.StartBlock < start {
			start = vault.StartBlock
		}
	}
	return start
}

type Deployment struct {
	Protocol string
	Network  string
}

func (d Deployment) String() string {
	return d.Protocol + "/" + d.Network
}

type Registry struct {
	Pricing map[string]pricing.Config     `yaml:"pricing"`
	Entries map[string]map[string]*Config `yaml:"deployments"`
}

func Default() *Registry {
	registry, err := Decode(defaultRegistry)
	if err != nil {
		panic(fmt.Errorf("embedded network registry: %w", err))
	}
	return registry
}

func LoadFile(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network registry %q: %w", path, err)
	}

	registry, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("decoding network registry %q: %w", path, err)
	}
	return registry, nil
}

func Decode(content []byte) (*Registry, error) {
	registry := &Registry{}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(registry); err != nil {
		return nil, err
	}

	for protocol, perNetwork := range registry.Entries {
		for network, config := range perNetwork {
			if config == nil {
				return nil, fmt.Errorf("deployment %s/%s is empty", protocol, network)
			}
			if _, found := registry.Pricing[network]; !found {
				return nil, fmt.Errorf("deployment %s/%s: no pricing for network %q", protocol, network, network)
			}
		}
	}
	return registry, nil
}

// Lookup returns the configuration of protocol on network. Unknown pairs are
// an error, there is no fallback configuration.
func (r *Registry) Lookup(protocol, network string) (*Config, error) {
	config, found := r.Entries[protocol][network]
	if !found {
		zlog.Error("no configuration for deployment", zap.String("protocol", protocol), zap.String("network", network))
		return nil, fmt.Errorf("%s/%s: %w", protocol, network, ErrUnknownDeployment)
	}

	out := *config
	out.Protocol = protocol
	out.Network = network
	out.Pricing = r.Pricing[network]
	out.Vaults = append([]VaultSource(nil), config.Vaults...)
	return &out, nil
}

func (r *Registry) Deployments() (out []Deployment) {
	for protocol, perNetwork := range r.Entries {
		for network := range perNetwork {
			out = append(out, Deployment{Protocol: protocol, Network: network})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return
}
