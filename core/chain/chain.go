// Package chain implements the chain controller of spec.md §4.4/§4.6: the
// single actor that owns the object store, the fork database, and the
// block log, and exposes push_transaction/push_block/generate_block as its
// only external surface, matching the teacher's convention of one
// mutex-guarded struct fronting several passive subsystems
// (_examples/josephblackelite-nhbchain/consensus/bft.Engine).
package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chainforge/core/bandwidth"
	"chainforge/core/blocklog"
	"chainforge/core/chainerr"
	"chainforge/core/evaluator"
	"chainforge/core/exchange"
	"chainforge/core/forkdb"
	"chainforge/core/hardfork"
	"chainforge/core/housekeeping"
	"chainforge/core/objectstore"
	"chainforge/core/types"
	"chainforge/core/witness"
)

var tracer = otel.Tracer("chainforge/core/chain")

// Chain is the single mutex-guarded actor spec.md §5 describes: every
// exported method takes the lock for its full duration, so concurrent RPC
// handlers serialize on it rather than requiring the object store or fork
// tree to be independently thread-safe.
type Chain struct {
	mu sync.RWMutex

	db       *objectstore.Database
	fork     *forkdb.DB
	log      *blocklog.Log
	registry *evaluator.Registry
	hf       *hardfork.Manager

	params Params

	pending    []*types.Transaction
	pendingIDs map[[32]byte]bool
	recentTx   map[[32]byte]uint64 // digest -> expiration, best-effort replay guard beyond a block's own pending set

	headID     types.BlockID
	headHeight uint64

	logger  *slog.Logger
	metrics *Metrics
}

// New wires a Chain around an already-open Database, fork tree, block log
// and hardfork manager. Callers (typically the genesis loader or node
// startup path) are responsible for seeding db with genesis state before
// the first push_block.
func New(db *objectstore.Database, fdb *forkdb.DB, log *blocklog.Log, hf *hardfork.Manager, params Params, logger *slog.Logger, metrics *Metrics) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		db:         db,
		fork:       fdb,
		log:        log,
		registry:   evaluator.NewRegistry(),
		hf:         hf,
		params:     params,
		pendingIDs: make(map[[32]byte]bool),
		recentTx:   make(map[[32]byte]uint64),
		logger:     logger,
		metrics:    metrics,
	}
}

// Bootstrap seeds the fork tree with the current irreversible head (either
// genesis or whatever height the object store was loaded at) so the first
// push_block has a linkable parent.
func (c *Chain) Bootstrap(headID types.BlockID, height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fork.Reset(headID, height)
	c.headID = headID
	c.headHeight = height
}

// HeadBlockNumber returns the chain's current best height.
func (c *Chain) HeadBlockNumber() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headHeight
}

// ---- transaction admission -------------------------------------------------

// PushTransaction validates trx against the current head state and, on
// success, applies it in a throwaway session (rolled back immediately) to
// prove it is well-formed, then admits it to the pending pool for the next
// generated block. It never mutates persisted state: only generate_block's
// re-apply against a real block-level session does that.
func (c *Chain) PushTransaction(ctx context.Context, trx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "push_transaction")
	defer span.End()

	digest, err := trx.ID()
	if err != nil {
		return chainerr.New(chainerr.Validation, "push_transaction", "malformed transaction: %v", err)
	}
	if c.pendingIDs[digest] || c.recentTxContains(digest) {
		c.metrics.observeTx("duplicate")
		return chainerr.Wrap(chainerr.Protocol, "push_transaction", chainerr.ErrDuplicate)
	}

	dgp := c.db.Singleton()
	session := c.db.Store.Begin()
	if err := c.applyTransaction(trx, dgp.Time, c.headHeight+1); err != nil {
		session.Undo()
		c.metrics.observeTx("rejected")
		return err
	}
	session.Undo() // admission is a dry run; generate_block re-applies for real

	c.pending = append(c.pending, trx)
	c.pendingIDs[digest] = true
	c.metrics.observeTx("admitted")
	return nil
}

// applyTransaction runs TaPoS, expiration, authority, and bandwidth checks
// and then dispatches every operation to the evaluator registry. Callers
// own the surrounding session: on any error the caller must Undo it.
func (c *Chain) applyTransaction(trx *types.Transaction, now uint64, blockNum uint64) error {
	dgp := c.db.Singleton()

	if trx.Expiration <= now {
		return chainerr.Wrap(chainerr.Protocol, "apply_transaction", chainerr.ErrExpired)
	}
	if trx.Expiration > now+c.params.MaxTransactionExpirationSeconds {
		return chainerr.New(chainerr.Protocol, "apply_transaction", "expiration too far in the future")
	}
	if err := c.checkTaPoS(trx, dgp); err != nil {
		return err
	}

	signerBytes, err := trx.SignerKeys()
	if err != nil {
		return chainerr.New(chainerr.AuthorityMissing, "apply_transaction", "invalid signature: %v", err)
	}
	signerKeys := make(map[string]bool, len(signerBytes))
	for _, k := range signerBytes {
		signerKeys[hex.EncodeToString(k)] = true
	}

	for _, op := range trx.Operations {
		if err := evaluator.RequireAll(c.db, op.RequiredOwner(), evaluator.LevelOwner, signerKeys, "authority"); err != nil {
			return err
		}
		if err := evaluator.RequireAll(c.db, op.RequiredActive(), evaluator.LevelActive, signerKeys, "authority"); err != nil {
			return err
		}
		if err := evaluator.RequireAll(c.db, op.RequiredPosting(), evaluator.LevelPosting, signerKeys, "authority"); err != nil {
			return err
		}
	}

	if err := c.chargeBandwidth(trx, now); err != nil {
		return err
	}

	evalCtx := &evaluator.Context{DB: c.db, Now: now, BlockNum: blockNum, SignerKeys: signerKeys, Params: c.params.Evaluator}
	for _, op := range trx.Operations {
		if err := c.registry.Apply(evalCtx, op); err != nil {
			return err
		}
	}
	return nil
}

// checkTaPoS verifies trx.RefBlockNum/RefBlockPrefix against the recorded
// block-summary ring buffer, spec.md §4.4's replay-protection mechanism:
// a transaction must reference a real recent block by its low 16 bits of
// height and the next 4 id bytes, so it cannot be replayed once that slot
// in the ring buffer has been overwritten (roughly a 65536-block window).
func (c *Chain) checkTaPoS(trx *types.Transaction, dgp *objectstore.DynamicGlobalProperties) error {
	if dgp.HeadBlockNumber == 0 {
		return nil // genesis: nothing to reference yet
	}
	slot := uint16(uint64(trx.RefBlockNum) % 0x10000)
	summary, ok := c.db.BlockSummaries.Find("by_slot", slotKey(slot))
	if !ok {
		return chainerr.New(chainerr.Protocol, "tapos", "no block summary at slot %d", slot)
	}
	var prefix uint32
	prefix = uint32(summary.BlockID[4])<<24 | uint32(summary.BlockID[5])<<16 | uint32(summary.BlockID[6])<<8 | uint32(summary.BlockID[7])
	if prefix != trx.RefBlockPrefix {
		return chainerr.New(chainerr.Protocol, "tapos", "reference block prefix mismatch")
	}
	return nil
}

func slotKey(slot uint16) string { return fmt.Sprintf("%05d", slot) }

func (c *Chain) chargeBandwidth(trx *types.Transaction, now uint64) error {
	encoded, err := trx.SigningBytes()
	if err != nil {
		return chainerr.New(chainerr.Validation, "bandwidth", "cannot size transaction: %v", err)
	}
	txSize := uint32(len(encoded))
	dgp := c.db.Singleton()
	seen := map[string]bool{}
	for _, op := range trx.Operations {
		for _, name := range append(append(op.RequiredOwner(), op.RequiredActive()...), op.RequiredPosting()...) {
			if seen[name] {
				continue
			}
			seen[name] = true
			acct, ok := c.db.Accounts.Find("by_name", name)
			if !ok {
				continue
			}
			bw := bandwidth.Charge(c.db, name, objectstore.BandwidthForum, txSize, now, c.params.Bandwidth)
			if err := bandwidth.CheckQuota(acct.Vesting, bw.Average, dgp.TotalVestingShares, c.params.Bandwidth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Chain) recentTxContains(digest [32]byte) bool {
	_, ok := c.recentTx[digest]
	return ok
}

// ---- block application ------------------------------------------------------

// PushBlock is spec.md §4.4's push_block: it links block into the fork
// tree and then applies exactly one of three outcomes — extend the current
// head, switch to a strictly-higher branch (reverting cleanly if the new
// branch fails to reapply), or accept the block without moving the head.
func (c *Chain) PushBlock(ctx context.Context, block *types.Block, blockNumber uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "push_block", trace.WithAttributes(attribute.Int64("block.number", int64(blockNumber))))
	defer span.End()
	started := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.applyDuration.Observe(time.Since(started).Seconds())
		}
	}()

	id := block.Header.ID(blockNumber)
	if _, exists := c.fork.Get(id); exists {
		return nil // already known, idempotent
	}
	if _, ok := c.fork.Get(block.Header.PreviousID); !ok {
		c.metrics.observeBlockRejected("unlinkable")
		return chainerr.New(chainerr.Protocol, "push_block", "unlinkable block: unknown parent")
	}

	node, newHead, err := c.fork.Push(id, blockNumber, block)
	if err != nil {
		c.metrics.observeBlockRejected("unlinkable")
		return chainerr.Wrap(chainerr.Protocol, "push_block", err)
	}

	switch {
	case newHead.ID != id:
		// Accepted into the tree but did not become head: either a
		// lower/equal-height branch, or the network is still catching up
		// on a competing fork. Nothing further to do until a later block
		// makes this branch the tallest.
		c.metrics.observeBlockApplied("accepted_no_switch")
		return nil

	case node.Parent.ID == c.headID:
		// Case 1: extends the current best chain by one block.
		if err := c.applyBlockAt(block, blockNumber); err != nil {
			c.metrics.observeBlockRejected(chainerr.KindOf(err).String())
			return err
		}
		c.headID, c.headHeight = id, blockNumber
		c.metrics.observeBlockApplied("extend")
		return nil

	default:
		// Case 2: the new head is on a branch that diverges from the
		// current head. Pop back to the common ancestor and replay every
		// block on the new branch; on any failure, replay the old branch
		// back so the store never observes a half-switched state.
		return c.switchFork(id, blockNumber)
	}
}

// switchFork pops the store from the current head down to the common
// ancestor with newHeadID's branch, then replays that branch's blocks in
// order. A failure partway through triggers a full revert back to the
// original head, per spec.md §4.4's fork-switch failure policy.
func (c *Chain) switchFork(newHeadID types.BlockID, newHeadHeight uint64) error {
	oldBranch, newBranch, ancestor, err := forkdb.FetchBranchFrom(c.fork, c.headID, newHeadID)
	if err != nil {
		return chainerr.Wrap(chainerr.Consensus, "switch_fork", err)
	}

	for h := c.headHeight; h > ancestor.Height; h-- {
		if !c.db.Store.UndoBlock(h) {
			return chainerr.New(chainerr.Fatal, "switch_fork", "undo history exhausted at height %d", h)
		}
	}
	c.restorePoppedTransactions(oldBranch, newBranch)

	applied := 0
	for _, n := range newBranch {
		if err := c.applyBlockAt(n.Block, n.Height); err != nil {
			// revert the partial switch and restore the old branch
			for i := 0; i < applied; i++ {
				c.db.Store.UndoBlock(newBranch[i].Height)
			}
			for _, o := range oldBranch {
				if reErr := c.applyBlockAt(o.Block, o.Height); reErr != nil {
					c.logger.Error("fork switch revert failed", "error", reErr)
					return chainerr.New(chainerr.Fatal, "switch_fork", "unable to restore prior branch after failed switch: %v / %v", err, reErr)
				}
			}
			c.metrics.observeBlockRejected(chainerr.KindOf(err).String())
			return err
		}
		applied++
	}

	c.headID, c.headHeight = newHeadID, newHeadHeight
	c.metrics.observeForkSwitch()
	c.metrics.observeBlockApplied("fork_switch")
	return nil
}

// restorePoppedTransactions re-admits every not-yet-expired transaction
// that was only ever confirmed on the branch just undone, so a losing
// fork's unique transactions come back for the next generate_block instead
// of being silently dropped, per spec.md §4.4's fork-switch contract.
func (c *Chain) restorePoppedTransactions(oldBranch, newBranch []*forkdb.Node) {
	dgp := c.db.Singleton()
	now := dgp.Time

	onNewBranch := make(map[[32]byte]bool)
	for _, n := range newBranch {
		if n.Block == nil {
			continue
		}
		for _, trx := range n.Block.Transactions {
			if digest, err := trx.ID(); err == nil {
				onNewBranch[digest] = true
			}
		}
	}

	for _, n := range oldBranch {
		if n.Block == nil {
			continue
		}
		for _, trx := range n.Block.Transactions {
			digest, err := trx.ID()
			if err != nil || trx.Expiration <= now {
				continue
			}
			if onNewBranch[digest] || c.pendingIDs[digest] {
				continue
			}
			c.pending = append(c.pending, trx)
			c.pendingIDs[digest] = true
		}
	}
}

// applyBlockAt runs the full apply-block procedure inside one block-level
// undo session tagged at height, matching the objectstore.Store's
// revision-per-block-height contract.
func (c *Chain) applyBlockAt(block *types.Block, height uint64) error {
	session := c.db.Store.BeginBlock(height)
	if err := c.applyBlockBody(block, height); err != nil {
		c.db.Store.UndoBlock(height)
		return err
	}
	session.Squash()
	c.pruneApplied(block)
	c.recomputeIrreversibility()
	return nil
}

// applyBlockBody is the nine-step apply-block procedure of spec.md §4.4,
// run inside the caller's already-open block-level session.
func (c *Chain) applyBlockBody(block *types.Block, height uint64) error {
	dgp := c.db.Singleton()

	if err := verifyMerkleRoot(block); err != nil {
		return err
	}

	schedule := c.db.ScheduleSingleton()
	aslot := witness.GetSlotAtTime(dgp.Time, block.Header.Timestamp, c.params.BlockIntervalSeconds)
	if aslot == 0 {
		return chainerr.New(chainerr.Protocol, "apply_block", "block timestamp does not advance a slot")
	}
	scheduled, ok := witness.ScheduledWitness(schedule, dgp.CurrentAslot+aslot)
	if ok && scheduled != block.Header.Witness {
		return chainerr.New(chainerr.Protocol, "apply_block", "witness %s is not scheduled for this slot", block.Header.Witness)
	}
	if err := c.verifyWitnessSignature(block); err != nil {
		return err
	}

	missed := aslot - 1
	c.penalizeMissedSlots(schedule, dgp.CurrentAslot, missed)
	c.recordWitnessExtensions(block)

	seen := map[[32]byte]bool{}
	for _, trx := range block.Transactions {
		digest, err := trx.ID()
		if err != nil {
			return chainerr.New(chainerr.Validation, "apply_block", "malformed transaction: %v", err)
		}
		if seen[digest] {
			return chainerr.Wrap(chainerr.Protocol, "apply_block", chainerr.ErrDuplicate)
		}
		seen[digest] = true

		txSession := c.db.Store.Begin()
		if err := c.applyTransaction(trx, block.Header.Timestamp, height); err != nil {
			txSession.Undo()
			return err
		}
		txSession.Squash()
		c.recentTx[digest] = trx.Expiration
	}

	id := block.Header.ID(height)
	c.db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.HeadBlockNumber = height
		g.HeadBlockID = id
		g.Time = block.Header.Timestamp
		g.CurrentWitness = block.Header.Witness
		g.CurrentAslot += aslot
	})
	if w, ok := c.db.Witnesses.Find("by_owner", block.Header.Witness); ok {
		c.db.Witnesses.Modify(w, func(w *objectstore.Witness) {
			w.LastConfirmedBlock = height
			w.LastAslot = dgp.CurrentAslot
		})
	}

	c.recordBlockSummary(height, id)

	if int(height)%int(c.params.Witness.NumScheduledWitnesses) == 0 {
		witness.UpdateSchedule(c.db, c.params.Witness)
	}

	exchange.Run(c.db, c.params.Exchange, block.Header.Timestamp)
	housekeeping.Run(c.db, c.params.Housekeeping, height, block.Header.Timestamp)

	if _, err := c.hf.ApplyDue(c.db, block.Header.Timestamp); err != nil {
		return chainerr.Wrap(chainerr.Consensus, "apply_block", err)
	}

	c.expirePendingRequests(block.Header.Timestamp)
	c.evictExpiredRecentTx(block.Header.Timestamp)
	return nil
}

func verifyMerkleRoot(block *types.Block) error {
	got := types.TransactionMerkleRoot(block.Transactions)
	if got != block.Header.TransactionMerkleRoot {
		return chainerr.New(chainerr.Protocol, "apply_block", "transaction merkle root mismatch")
	}
	return nil
}

func (c *Chain) verifyWitnessSignature(block *types.Block) error {
	w, ok := c.db.Witnesses.Find("by_owner", block.Header.Witness)
	if !ok {
		return chainerr.New(chainerr.Precondition, "apply_block", "unknown witness %s", block.Header.Witness)
	}
	pub, err := types.RecoverHeaderSigner(&block.Header, block.WitnessSig)
	if err != nil {
		return chainerr.New(chainerr.Protocol, "apply_block", "invalid witness signature: %v", err)
	}
	if hex.EncodeToString(pub) != w.SigningKey {
		return chainerr.New(chainerr.AuthorityMissing, "apply_block", "block not signed by witness %s's signing key", w.Owner)
	}
	return nil
}

func (c *Chain) recordWitnessExtensions(block *types.Block) {
	w, ok := c.db.Witnesses.Find("by_owner", block.Header.Witness)
	if !ok {
		return
	}
	ext := block.Header.Ext
	if ext.Version == nil && ext.HardforkVote == nil {
		return
	}
	c.db.Witnesses.Modify(w, func(w *objectstore.Witness) {
		if ext.Version != nil {
			w.RunningVersion = *ext.Version
		}
		if ext.HardforkVote != nil {
			w.HardforkVote = *ext.HardforkVote
			w.HardforkTimeVote = block.Header.Timestamp
		}
	})
}

// penalizeMissedSlots increments TotalMissed for every witness scheduled
// in a slot between the previous head's slot and this block's, exclusive
// of the slot this block itself fills, per spec.md §4.5's scheduling
// contract ("skipped slots count against the scheduled witness").
func (c *Chain) penalizeMissedSlots(schedule *objectstore.WitnessSchedule, headAslot uint64, missed uint64) {
	for i := uint64(1); i <= missed; i++ {
		name, ok := witness.ScheduledWitness(schedule, headAslot+i)
		if !ok {
			continue
		}
		if w, ok := c.db.Witnesses.Find("by_owner", name); ok {
			c.db.Witnesses.Modify(w, func(w *objectstore.Witness) { w.TotalMissed++ })
		}
	}
}

func (c *Chain) recordBlockSummary(height uint64, id types.BlockID) {
	slot := uint16(height % 0x10000)
	if existing, ok := c.db.BlockSummaries.Find("by_slot", slotKey(slot)); ok {
		c.db.BlockSummaries.Modify(existing, func(s *objectstore.BlockSummary) {
			s.Slot = slot
			s.BlockID = id
		})
		return
	}
	c.db.BlockSummaries.Create(&objectstore.BlockSummary{}, func(s *objectstore.BlockSummary) {
		s.Slot = slot
		s.BlockID = id
	})
}

// expirePendingRequests sits at the position spec.md §4.9 step 9 names and
// does nothing: there is no pending-request table, and the
// request_account_recovery, change_recovery_account and
// decline_voting_rights evaluators record no request to expire.
func (c *Chain) expirePendingRequests(now uint64) {
	_ = now
}

func (c *Chain) evictExpiredRecentTx(now uint64) {
	for digest, exp := range c.recentTx {
		if exp <= now {
			delete(c.recentTx, digest)
		}
	}
}

// pruneApplied trims committed transactions out of the pending pool once
// they have landed in a block.
func (c *Chain) pruneApplied(block *types.Block) {
	if len(c.pending) == 0 {
		return
	}
	applied := make(map[[32]byte]bool, len(block.Transactions))
	for _, trx := range block.Transactions {
		if digest, err := trx.ID(); err == nil {
			applied[digest] = true
		}
	}
	kept := c.pending[:0]
	for _, trx := range c.pending {
		digest, err := trx.ID()
		if err != nil || applied[digest] {
			delete(c.pendingIDs, digest)
			continue
		}
		kept = append(kept, trx)
	}
	c.pending = kept
}

// recomputeIrreversibility implements spec.md §4.6: collect every
// scheduled witness's last_confirmed_block_num, sort ascending, and take
// the value at position floor((1-threshold)*N) as the candidate last
// irreversible block; it only ever advances. Everything at or below that
// height is committed (irreversible) and appended to the block log.
func (c *Chain) recomputeIrreversibility() {
	schedule := c.db.ScheduleSingleton()
	n := len(schedule.CurrentShuffledWitnesses)
	if n == 0 {
		return
	}
	confirmed := make([]uint64, 0, n)
	for _, name := range schedule.CurrentShuffledWitnesses {
		if w, ok := c.db.Witnesses.Find("by_owner", name); ok {
			confirmed = append(confirmed, w.LastConfirmedBlock)
		}
	}
	if len(confirmed) == 0 {
		return
	}
	sort.Slice(confirmed, func(i, j int) bool { return confirmed[i] < confirmed[j] })
	idx := (len(confirmed) * (10_000 - int(c.params.IrreversibilityThresholdBps))) / 10_000
	if idx >= len(confirmed) {
		idx = len(confirmed) - 1
	}
	candidate := confirmed[idx]

	dgp := c.db.Singleton()
	if candidate <= dgp.LastIrreversibleBlockNum {
		return
	}
	c.db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) { g.LastIrreversibleBlockNum = candidate })

	c.appendIrreversibleBlocks(candidate)
	c.db.Store.Commit(candidate)
	c.fork.Prune(candidate)
}

// appendIrreversibleBlocks walks the fork tree from the current head back
// to candidate's height and appends any not-yet-logged block to the block
// log, oldest first.
func (c *Chain) appendIrreversibleBlocks(candidate uint64) {
	if c.log == nil {
		return
	}
	logHead, _, hasLog := c.log.Head()
	start := uint64(0)
	if hasLog {
		start = logHead + 1
	}
	if start > candidate {
		return
	}
	nodes := make([]*forkdb.Node, 0, candidate-start+1)
	n, ok := c.fork.Get(c.headID)
	for ok && n != nil && n.Height >= start {
		if n.Height <= candidate {
			nodes = append(nodes, n)
		}
		n = n.Parent
		if n == nil {
			break
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Height < nodes[j].Height })
	for _, node := range nodes {
		if node.Block == nil {
			continue
		}
		if err := c.log.Append(node.Height, node.ID, node.Block); err != nil {
			c.logger.Error("block log append failed", "height", node.Height, "error", err)
		}
	}
}

// ---- block production -------------------------------------------------------

// hardforkExtension reports the binary-version/hardfork-vote extension the
// header should carry, per spec.md §4.4: it is only populated when this
// node's view of the running version or the next scheduled hardfork
// diverges from what the witness's own on-chain record last reported,
// so peers can tell a witness is signaling a stale build without every
// block paying the cost of carrying both fields unconditionally.
func (c *Chain) hardforkExtension(witnessName string) types.Extensions {
	var ext types.Extensions
	w, ok := c.db.Witnesses.Find("by_owner", witnessName)
	if !ok {
		return ext
	}
	props := c.db.HardforkSingleton()
	if w.RunningVersion != props.CurrentHardforkVersion {
		v := props.CurrentHardforkVersion
		ext.Version = &v
	}
	if next, ok := c.hf.NextActivation(props); ok && w.HardforkVote != next.Number {
		n := next.Number
		ext.HardforkVote = &n
	}
	return ext
}

// GenerateBlock is spec.md §4.4's generate_block: greedily re-applies
// pending transactions up to the block size limit, skipping any that now
// fail (stale authority, expired) or postponing any too large to fit, then
// returns the unsigned block for the caller to sign with SignBlock and
// push with PushBlock.
func (c *Chain) GenerateBlock(ctx context.Context, when uint64, witnessName string) (*types.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, span := tracer.Start(ctx, "generate_block")
	defer span.End()

	header := types.Header{
		PreviousID: c.headID,
		Timestamp:  when,
		Witness:    witnessName,
		Ext:        c.hardforkExtension(witnessName),
	}

	var included []*types.Transaction
	var postponed []*types.Transaction
	size := uint32(0)

	session := c.db.Store.Begin()
	for _, trx := range c.pending {
		encoded, err := trx.SigningBytes()
		if err != nil {
			continue
		}
		txSize := uint32(len(encoded))
		if size+txSize > c.params.MaxBlockSizeBytes {
			postponed = append(postponed, trx)
			continue
		}
		if txSize > c.params.MaxTransactionSizeBytes {
			continue
		}
		if trx.Expiration <= when {
			continue
		}
		if err := c.applyTransaction(trx, when, c.headHeight+1); err != nil {
			continue
		}
		included = append(included, trx)
		size += txSize
	}
	session.Undo() // this was a dry run against pre-block state; apply_block_body reapplies for real

	header.TransactionMerkleRoot = types.TransactionMerkleRoot(included)
	block := &types.Block{Header: header, Transactions: included}

	c.pending = postponed
	c.pendingIDs = make(map[[32]byte]bool, len(postponed))
	for _, trx := range postponed {
		if digest, err := trx.ID(); err == nil {
			c.pendingIDs[digest] = true
		}
	}

	return block, nil
}

// SignBlock computes the header's signing digest and attaches the
// resulting recoverable ECDSA signature; callers holding the witness's
// signing key call this before pushing the block.
func SignBlock(block *types.Block, key *ecdsa.PrivateKey) error {
	sig, err := types.SignHeader(&block.Header, key)
	if err != nil {
		return err
	}
	block.WitnessSig = sig
	return nil
}
