package genesis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, spec *Spec) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.json")
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadRequiresAtLeastOneWitness(t *testing.T) {
	path := writeSpec(t, &Spec{GenesisTime: "2026-01-01T00:00:00Z"})
	_, err := Load(path)
	require.Error(t, err)
}

func TestBuildDatabaseSeedsAccountsAndWitnesses(t *testing.T) {
	spec := &Spec{
		GenesisTime:      "2026-01-01T00:00:00Z",
		BaseAssetSymbol:  "STEEM",
		DebtAssetSymbol:  "SBD",
		InitialWitnesses: []WitnessSpec{{Owner: "witness1", SigningKey: "aabbcc"}},
		InitialAccounts: []AccountSpec{
			{Name: "alice", PublicKey: "0011", Liquid: "1000", Vesting: "500"},
		},
	}
	path := writeSpec(t, spec)
	loaded, err := Load(path)
	require.NoError(t, err)

	db, err := BuildDatabase(loaded)
	require.NoError(t, err)

	alice, ok := db.Accounts.Find("by_name", "alice")
	require.True(t, ok)
	require.Equal(t, "1000", alice.Liquid.String())

	w, ok := db.Witnesses.Find("by_owner", "witness1")
	require.True(t, ok)
	require.Equal(t, "aabbcc", w.SigningKey)

	dgp := db.Singleton()
	require.Equal(t, "1500", dgp.CurrentSupply.String())
	require.Equal(t, "witness1", dgp.CurrentWitness)

	schedule := db.ScheduleSingleton()
	require.Equal(t, []string{"witness1"}, schedule.CurrentShuffledWitnesses)
}

func TestBlockIDIsDeterministic(t *testing.T) {
	spec := &Spec{GenesisTime: "2026-01-01T00:00:00Z", InitialWitnesses: []WitnessSpec{{Owner: "w", SigningKey: "aa"}}}
	path := writeSpec(t, spec)
	loaded, err := Load(path)
	require.NoError(t, err)

	a := BlockID(loaded)
	b := BlockID(loaded)
	require.Equal(t, a, b)
	require.Equal(t, uint32(0), a.Number())
}
