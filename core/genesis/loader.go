package genesis

import (
	"fmt"
	"math/big"

	"chainforge/core/objectstore"
	"chainforge/core/types"
	"chainforge/core/witness"
)

// NullAccount receives the balances housekeeping's burn step destroys.
const NullAccount = "null"

// BuildDatabase materializes spec into a fresh object store: every initial
// witness and account is created, global properties and the witness
// schedule are seeded, and the sole content reward fund is opened.
func BuildDatabase(spec *Spec) (*objectstore.Database, error) {
	db := objectstore.NewDatabase()

	db.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
		a.Name = NullAccount
		a.Liquid, a.Vesting, a.SBD, a.Savings, a.SBDSavings = big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)
		a.VestingWithdrawRate, a.ToWithdraw, a.Withdrawn = big.NewInt(0), big.NewInt(0), big.NewInt(0)
		a.NextVestingWithdraw = ^uint64(0)
		a.ProxiedVSFBonus = [4]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)}
		a.CanVote = true
	})

	totalLiquid, totalVesting, totalSBD := big.NewInt(0), big.NewInt(0), big.NewInt(0)
	for _, as := range spec.InitialAccounts {
		liquid, err := parseBig(as.Liquid)
		if err != nil {
			return nil, err
		}
		vesting, err := parseBig(as.Vesting)
		if err != nil {
			return nil, err
		}
		sbd, err := parseBig(as.SBD)
		if err != nil {
			return nil, err
		}
		if as.Name == "" || as.PublicKey == "" {
			return nil, fmt.Errorf("genesis: account entry missing name or publicKey")
		}
		auth := objectstore.Authority{Threshold: 1, KeyWeights: map[string]uint32{as.PublicKey: 1}}
		db.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
			a.Name = as.Name
			a.Owner, a.Active, a.Posting = auth, auth, auth
			a.Memo = as.MemoKey
			a.Liquid, a.Vesting, a.SBD = liquid, vesting, sbd
			a.Savings, a.SBDSavings = big.NewInt(0), big.NewInt(0)
			a.VestingWithdrawRate, a.ToWithdraw, a.Withdrawn = big.NewInt(0), big.NewInt(0), big.NewInt(0)
			a.NextVestingWithdraw = ^uint64(0)
			a.ProxiedVSFBonus = [4]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)}
			a.CanVote = true
			a.CreatedAt = spec.Timestamp()
		})
		totalLiquid.Add(totalLiquid, liquid)
		totalVesting.Add(totalVesting, vesting)
		totalSBD.Add(totalSBD, sbd)
	}

	owners := make([]string, 0, len(spec.InitialWitnesses))
	for _, ws := range spec.InitialWitnesses {
		if ws.Owner == "" || ws.SigningKey == "" {
			return nil, fmt.Errorf("genesis: witness entry missing owner or signingKey")
		}
		db.Witnesses.Create(&objectstore.Witness{}, func(w *objectstore.Witness) {
			w.Owner = ws.Owner
			w.SigningKey = ws.SigningKey
			w.Votes = big.NewInt(0)
			w.VirtualLastUpdate, w.VirtualPosition, w.VirtualSchedTime = big.NewRat(0, 1), big.NewRat(0, 1), big.NewRat(0, 1)
			w.SBDExchangeRate = big.NewRat(1, 1)
			w.Props.AccountCreationFee = big.NewInt(0)
			w.Props.MaxBlockSize = 2 * 1024 * 1024
		})
		owners = append(owners, ws.Owner)
	}

	wp := witness.DefaultParams()
	schedule := db.ScheduleSingleton()
	db.Schedule.Modify(schedule, func(s *objectstore.WitnessSchedule) {
		s.CurrentShuffledWitnesses = owners
		s.NumScheduledWitnesses = wp.NumScheduledWitnesses
		s.TopN, s.TimeshareN, s.MinerN = wp.TopN, wp.TimeshareN, wp.MinerN
		s.WitnessPayNormalizationFactor = uint32(len(owners))
	})

	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.Time = spec.Timestamp()
		g.CurrentWitness = owners[0]
		g.CurrentSupply = new(big.Int).Add(totalLiquid, totalVesting)
		g.VirtualSupply = new(big.Int).Add(totalLiquid, totalVesting)
		g.CurrentSBDSupply = new(big.Int).Set(totalSBD)
		g.TotalVestingFundSteem = new(big.Int).Set(totalVesting)
		g.TotalVestingShares = new(big.Int).Set(totalVesting)
		g.CurrentReserveRatio = 10_000
		g.MaxVirtualBandwidth = big.NewInt(1_000_000_000_000)
		g.MaximumBlockSize = 2 * 1024 * 1024
	})

	db.HardforkSingleton()

	db.RewardFunds.Create(&objectstore.RewardFund{}, func(f *objectstore.RewardFund) {
		f.Name = "post"
		f.RewardBalance = big.NewInt(0)
		f.RecentClaims = big.NewInt(0)
		f.PercentContentRewards = 10_000
		f.ContentConstant = big.NewInt(2_000_000_000_000)
		f.LastUpdate = spec.Timestamp()
	})

	return db, nil
}

// Header returns the unsigned genesis header (block 0) a fresh chain
// controller bootstraps its fork tree from.
func Header(spec *Spec) types.Header {
	return types.Header{Timestamp: spec.Timestamp(), Witness: ""}
}

// BlockID computes the genesis block's id, the initial head a Chain's fork
// tree is reset to before any real block is pushed.
func BlockID(spec *Spec) types.BlockID {
	h := Header(spec)
	return h.ID(0)
}
