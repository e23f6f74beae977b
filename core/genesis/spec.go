// Package genesis loads the JSON document describing a chain's initial
// state and materializes it into a fresh object store, the seed a chain
// controller bootstraps from before accepting its first block.
package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"
)

// AccountSpec seeds one genesis account with a single-key owner/active/
// posting authority (threshold 1, one key at weight 1). Multi-key or
// multi-account authorities can be layered on afterward with account_update.
type AccountSpec struct {
	Name       string `json:"name"`
	PublicKey  string `json:"publicKey"`
	MemoKey    string `json:"memoKey"`
	Liquid     string `json:"liquid"`
	Vesting    string `json:"vesting"`
	SBD        string `json:"sbd"`
}

// WitnessSpec seeds one genesis witness, immediately eligible for
// scheduling once enough vesting shares have voted for it.
type WitnessSpec struct {
	Owner      string `json:"owner"`
	SigningKey string `json:"signingKey"`
}

// Spec is the top-level genesis document.
type Spec struct {
	GenesisTime       string        `json:"genesisTime"`
	BaseAssetSymbol   string        `json:"baseAssetSymbol"`
	DebtAssetSymbol   string        `json:"debtAssetSymbol"`
	InitialWitnesses  []WitnessSpec `json:"initialWitnesses"`
	InitialAccounts   []AccountSpec `json:"initialAccounts"`

	timestamp time.Time
}

// Load reads and parses a genesis document from path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	ts, err := time.Parse(time.RFC3339, spec.GenesisTime)
	if err != nil {
		return nil, fmt.Errorf("genesis: invalid genesisTime %q: %w", spec.GenesisTime, err)
	}
	spec.timestamp = ts
	if len(spec.InitialWitnesses) == 0 {
		return nil, fmt.Errorf("genesis: at least one initial witness is required")
	}
	return &spec, nil
}

// Timestamp returns the parsed genesis time as unix seconds.
func (s *Spec) Timestamp() uint64 { return uint64(s.timestamp.Unix()) }

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("genesis: invalid integer amount %q", s)
	}
	return n, nil
}
