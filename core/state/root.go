// Package state computes a deterministic commitment over the object
// store's current contents. The block header carries no state root and no
// caller in this repository invokes Root. It does not back the store
// itself — the object store is the source of truth; this package only
// hashes a canonical snapshot of it.
package state

import (
	"encoding/binary"
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"

	"chainforge/core/objectstore"
)

// Root walks a fixed list of tables in db (accounts, comments, witnesses,
// limit orders, call orders, assets, asset dynamic data, bitassets, escrows
// and savings withdrawals) plus the dynamic global properties singleton,
// JSON-encodes each record in primary-key order, and folds the results into
// a single Keccak256 accumulator. Other tables do not affect the root. Two databases with identical live records produce the same
// root regardless of the order operations were applied in, matching the
// object store's "immutable-by-default records addressed by stable ids"
// model (spec.md §3). JSON rather than RLP because several tables carry
// *big.Rat fields (virtual scheduling time, feed prices) that RLP cannot
// encode; go-ethereum's RLP codec stays in use where the payload is
// RLP-friendly (block headers, transaction hashing candidates).
func Root(db *objectstore.Database) ([32]byte, error) {
	h := crypto.NewKeccakState()

	if err := hashTable(h, db.Accounts.All(), func(a *objectstore.Account) objectstore.ID { return a.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.Comments.All(), func(c *objectstore.Comment) objectstore.ID { return c.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.Witnesses.All(), func(w *objectstore.Witness) objectstore.ID { return w.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.LimitOrders.All(), func(o *objectstore.LimitOrder) objectstore.ID { return o.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.CallOrders.All(), func(c *objectstore.CallOrder) objectstore.ID { return c.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.Assets.All(), func(a *objectstore.Asset) objectstore.ID { return a.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.AssetDynamic.All(), func(a *objectstore.AssetDynamicData) objectstore.ID { return a.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.BitAssets.All(), func(a *objectstore.AssetBitAssetData) objectstore.ID { return a.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.Escrows.All(), func(e *objectstore.Escrow) objectstore.ID { return e.GetID() }); err != nil {
		return [32]byte{}, err
	}
	if err := hashTable(h, db.SavingsWithdraws.All(), func(s *objectstore.SavingsWithdrawRequest) objectstore.ID { return s.GetID() }); err != nil {
		return [32]byte{}, err
	}

	singleton, err := json.Marshal(db.Singleton())
	if err != nil {
		return [32]byte{}, err
	}
	h.Write(singleton)

	var out [32]byte
	if _, err := h.Read(out[:]); err != nil {
		return [32]byte{}, err
	}
	return out, nil
}

func hashTable[T any](h interface {
	Write([]byte) (int, error)
}, records []T, idOf func(T) objectstore.ID) error {
	ids := make([]objectstore.ID, len(records))
	byID := make(map[objectstore.ID]T, len(records))
	for i, r := range records {
		ids[i] = idOf(r)
		byID[ids[i]] = r
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var idBuf [8]byte
	for _, id := range ids {
		binary.BigEndian.PutUint64(idBuf[:], uint64(id))
		if _, err := h.Write(idBuf[:]); err != nil {
			return err
		}
		enc, err := json.Marshal(byID[id])
		if err != nil {
			return err
		}
		if _, err := h.Write(enc); err != nil {
			return err
		}
	}
	return nil
}
