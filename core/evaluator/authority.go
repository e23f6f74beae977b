package evaluator

import (
	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
)

// MaxSigCheckDepth bounds the recursive account-authority walk so a cycle of
// account_auths cannot spin the authority check forever.
const MaxSigCheckDepth = 6

// Level names an authority tier for a required-signature check.
type Level int

const (
	LevelPosting Level = iota
	LevelActive
	LevelOwner
)

// Satisfied reports whether the set of keys that actually signed the
// enclosing transaction meets or exceeds accountName's threshold at level,
// recursing into any account_auths up to MaxSigCheckDepth. Posting-level
// checks also accept an active or owner signature (an active/owner key is
// always sufficient where a posting key is required), matching the
// historical authority-inclusion rule; active-level checks likewise accept
// an owner signature.
func Satisfied(db *objectstore.Database, accountName string, level Level, signerKeys map[string]bool) bool {
	return satisfiedDepth(db, accountName, level, signerKeys, 0, map[string]bool{})
}

func satisfiedDepth(db *objectstore.Database, accountName string, level Level, signerKeys map[string]bool, depth int, visiting map[string]bool) bool {
	if depth > MaxSigCheckDepth {
		return false
	}
	if visiting[accountName] {
		return false
	}
	visiting[accountName] = true
	defer delete(visiting, accountName)

	acct, ok := db.Accounts.Find("by_name", accountName)
	if !ok {
		return false
	}

	auths := candidateAuthorities(acct, level)
	for _, a := range auths {
		if weightSatisfied(db, a, signerKeys, depth, visiting) {
			return true
		}
	}
	return false
}

// candidateAuthorities returns, in order of preference, the authorities that
// can satisfy a check at level (posting accepts active/owner too; active
// accepts owner too).
func candidateAuthorities(acct *objectstore.Account, level Level) []objectstore.Authority {
	switch level {
	case LevelOwner:
		return []objectstore.Authority{acct.Owner}
	case LevelActive:
		return []objectstore.Authority{acct.Active, acct.Owner}
	default:
		return []objectstore.Authority{acct.Posting, acct.Active, acct.Owner}
	}
}

func weightSatisfied(db *objectstore.Database, a objectstore.Authority, signerKeys map[string]bool, depth int, visiting map[string]bool) bool {
	if a.Threshold == 0 {
		return false
	}
	var total uint32
	for key, weight := range a.KeyWeights {
		if signerKeys[key] {
			total += weight
		}
	}
	for name, weight := range a.AccountAuths {
		if satisfiedDepth(db, name, LevelActive, signerKeys, depth+1, visiting) {
			total += weight
		}
	}
	return total >= a.Threshold
}

// RequireAll checks every name against level and returns chainerr on the
// first failure, naming the offending account.
func RequireAll(db *objectstore.Database, names []string, level Level, signerKeys map[string]bool, op string) error {
	for _, name := range names {
		if !Satisfied(db, name, level, signerKeys) {
			return chainerr.New(chainerr.AuthorityMissing, op, "missing required signature for %s", name)
		}
	}
	return nil
}
