package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerContentOps(r *Registry) {
	r.register(types.OpComment, evalComment)
	r.register(types.OpCommentOptions, evalCommentOptions)
	r.register(types.OpDeleteComment, evalDeleteComment)
	r.register(types.OpVote, evalVote)
}

const defaultCashoutWindowSeconds = 7 * 24 * 3600

func evalComment(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommentOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Author); !ok {
		return chainerr.New(chainerr.Precondition, "comment", "unknown author %s", op.Author)
	}
	key := op.Author + "\x00" + op.Permlink
	existing, exists := ctx.DB.Comments.Find("by_author_permlink", key)

	var rootID objectstore.ID
	if op.ParentAuthor != "" {
		parent, ok := ctx.DB.Comments.Find("by_author_permlink", op.ParentAuthor+"\x00"+op.ParentPermlink)
		if !ok {
			return chainerr.New(chainerr.Precondition, "comment", "unknown parent %s/%s", op.ParentAuthor, op.ParentPermlink)
		}
		rootID = parent.RootCommentID
		if rootID == 0 {
			rootID = parent.GetID()
		}
		ctx.DB.Comments.Modify(parent, func(c *objectstore.Comment) { c.Children++ })
	}

	if exists {
		if existing.WasVoted {
			return chainerr.New(chainerr.Precondition, "comment", "cannot edit body after voting has begun")
		}
		ctx.DB.Comments.Modify(existing, func(c *objectstore.Comment) {})
		return nil
	}

	ctx.DB.Comments.Create(&objectstore.Comment{}, func(c *objectstore.Comment) {
		c.Author = op.Author
		c.Permlink = op.Permlink
		c.ParentAuthor = op.ParentAuthor
		c.ParentPermlink = op.ParentPermlink
		c.RootCommentID = rootID
		c.NetRshares = big.NewInt(0)
		c.AbsRshares = big.NewInt(0)
		c.VoteRshares = big.NewInt(0)
		c.ChildrenRshares2 = big.NewInt(0)
		c.Created = ctx.Now
		c.CashoutTime = ctx.Now + defaultCashoutWindowSeconds
		c.PercentSteemDollars = 10000
		c.MaxAcceptedPayout = new(big.Int).Lsh(big.NewInt(1), 62)
		c.AllowCuration = true
		c.AllowVotes = true
		c.RewardWeight = 10000
	})
	return nil
}

func evalCommentOptions(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommentOptionsOp)
	c, ok := ctx.DB.Comments.Find("by_author_permlink", op.Author+"\x00"+op.Permlink)
	if !ok {
		return chainerr.New(chainerr.Precondition, "comment_options", "unknown comment %s/%s", op.Author, op.Permlink)
	}
	if c.WasVoted {
		return chainerr.New(chainerr.Precondition, "comment_options", "payout terms are locked after the first vote")
	}
	beneficiaries := make([]objectstore.Beneficiary, len(op.Beneficiaries))
	var total uint32
	for i, b := range op.Beneficiaries {
		beneficiaries[i] = objectstore.Beneficiary{Account: b.Account, Weight: b.Weight}
		total += uint32(b.Weight)
		if _, ok := ctx.DB.Accounts.Find("by_name", b.Account); !ok {
			return chainerr.New(chainerr.Precondition, "comment_options", "unknown beneficiary %s", b.Account)
		}
	}
	if total > 10000 {
		return chainerr.New(chainerr.Validation, "comment_options", "beneficiary weights exceed 100%%")
	}
	ctx.DB.Comments.Modify(c, func(c *objectstore.Comment) {
		c.MaxAcceptedPayout = op.MaxAcceptedPayout
		c.PercentSteemDollars = op.PercentSteemDollars
		c.AllowVotes = op.AllowVotes
		c.AllowCuration = op.AllowCuration
		c.Beneficiaries = beneficiaries
	})
	return nil
}

func evalDeleteComment(ctx *Context, operation types.Operation) error {
	op := operation.(types.DeleteCommentOp)
	c, ok := ctx.DB.Comments.Find("by_author_permlink", op.Author+"\x00"+op.Permlink)
	if !ok {
		return chainerr.New(chainerr.Precondition, "delete_comment", "unknown comment %s/%s", op.Author, op.Permlink)
	}
	if c.Children > 0 {
		return chainerr.New(chainerr.Precondition, "delete_comment", "cannot delete a comment with replies")
	}
	if c.NetRshares.Sign() > 0 {
		return chainerr.New(chainerr.Precondition, "delete_comment", "cannot delete a comment with positive rshares")
	}
	ctx.DB.Comments.Remove(c)
	return nil
}

func evalVote(ctx *Context, operation types.Operation) error {
	op := operation.(types.VoteOp)
	if op.Weight < -10000 || op.Weight > 10000 {
		return chainerr.New(chainerr.Validation, "vote", "weight %d out of range", op.Weight)
	}
	voter, ok := ctx.DB.Accounts.Find("by_name", op.Voter)
	if !ok {
		return chainerr.New(chainerr.Precondition, "vote", "unknown voter %s", op.Voter)
	}
	c, ok := ctx.DB.Comments.Find("by_author_permlink", op.Author+"\x00"+op.Permlink)
	if !ok {
		return chainerr.New(chainerr.Precondition, "vote", "unknown comment %s/%s", op.Author, op.Permlink)
	}
	if !c.AllowVotes {
		return chainerr.New(chainerr.Precondition, "vote", "voting disabled on this comment")
	}
	if c.CashoutTime == objectstore.MaxCashoutTime {
		return chainerr.New(chainerr.Precondition, "vote", "comment has already been paid out")
	}

	voteKey := op.Voter + "\x00" + itoa64(uint64(c.GetID()))
	existingVote, hadVote := ctx.DB.CommentVotes.Find("by_voter_comment", voteKey)

	power := new(big.Int).SetInt64(int64(op.Weight))
	vestingShares := voter.Vesting
	rshares := new(big.Int).Mul(vestingShares, power)
	rshares.Div(rshares, big.NewInt(10000))

	var oldRshares *big.Int
	if hadVote {
		oldRshares = new(big.Int).Set(existingVote.Rshares)
	} else {
		oldRshares = big.NewInt(0)
	}
	delta := new(big.Int).Sub(rshares, oldRshares)
	preVoteAbsRshares := new(big.Int).Set(c.AbsRshares)

	ctx.DB.Comments.Modify(c, func(c *objectstore.Comment) {
		c.NetRshares.Add(c.NetRshares, delta)
		absDelta := new(big.Int).Abs(delta)
		c.AbsRshares.Add(c.AbsRshares, absDelta)
		c.VoteRshares.Add(c.VoteRshares, delta)
		c.WasVoted = true
	})

	curatorWeight := curatorRshareWeight(preVoteAbsRshares, c.AbsRshares)

	if hadVote {
		ctx.DB.CommentVotes.Modify(existingVote, func(v *objectstore.CommentVote) {
			v.Rshares = rshares
			v.Weight = curatorWeight
			v.NumChanges++
			v.VoteTime = ctx.Now
		})
	} else {
		ctx.DB.CommentVotes.Create(&objectstore.CommentVote{}, func(v *objectstore.CommentVote) {
			v.Voter = op.Voter
			v.CommentID = c.GetID()
			v.Weight = curatorWeight
			v.Rshares = rshares
			v.VoteTime = ctx.Now
		})
	}
	return nil
}

// curatorRshareWeight is a voter's curation weight, the amount by which its
// vote moved the comment's total abs_rshares, expressed as a square-root
// delta so early votes on a comment carry more weight than later ones on
// the same comment: sqrt(abs_rshares_after) - sqrt(abs_rshares_before),
// captured once at vote time and never re-derived at cashout.
func curatorRshareWeight(before, after *big.Int) *big.Int {
	if after.Cmp(before) <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(new(big.Int).Sqrt(after), new(big.Int).Sqrt(before))
}

func itoa64(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
