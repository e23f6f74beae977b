package objectstore

// Session is a scoped, nestable log of inverse mutations. A block owns one
// outermost session; a child session wraps each transaction; a further
// child wraps a single evaluator's tentative change. Every Table mutation
// made while a session is active appends an inverse closure to that
// session's log so Undo can unwind it in reverse order.
//
// A session that is neither Squash()ed nor Undo()ne before its owner
// returns is a bug in the caller. Store.Begin does not detect it: a new
// session simply nests under whichever session is still active.
type Session struct {
	store    *Store
	parent   *Session
	revision uint64
	log      []func()
	closed   bool
}

// Revision reports the revision number this session was opened at, i.e.
// the head block number of the enclosing block-level session.
func (s *Session) Revision() uint64 { return s.revision }

// Squash merges this session's inverse log into its parent, keeping the
// changes live in the parent's scope, and pops the session stack. A
// parentless block-level session (see BeginBlock) has no parent to merge
// into: Squash only pops it, and its log stays available to
// Store.UndoBlock until Store.Commit discards it.
func (s *Session) Squash() {
	if s == nil || s.closed {
		return
	}
	if s.parent != nil {
		s.closed = true
		s.parent.log = append(s.parent.log, s.log...)
	}
	if s.store.cur == s {
		s.store.cur = s.parent
	}
}

// Undo runs every recorded inverse in reverse order, discarding the
// session's changes entirely, and pops the session stack.
func (s *Session) Undo() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	for i := len(s.log) - 1; i >= 0; i-- {
		s.log[i]()
	}
	if s.store.cur == s {
		s.store.cur = s.parent
	}
}

// Begin opens a new session nested under the currently active session (nil
// if none), and makes it the active session for subsequent Table
// mutations.
func (s *Store) Begin() *Session {
	sess := &Session{store: s, parent: s.cur, revision: s.headRevision}
	s.cur = sess
	return sess
}

// BeginBlock opens a new top-level (parentless) session tagged with the
// given block-height revision, and retains it in the store's committed-
// pending list so it can later be committed (discarded, becoming
// irreversible) or undone (popping the block) independently of any other
// open session.
func (s *Store) BeginBlock(revision uint64) *Session {
	sess := &Session{store: s, revision: revision}
	s.cur = sess
	s.headRevision = revision
	s.blockSessions = append(s.blockSessions, sess)
	return sess
}

// UndoBlock reverts and discards the most recently opened block-level
// session, which must have revision as its height. It is an error to pop
// out of order; the chain controller only ever pops from the head.
func (s *Store) UndoBlock(revision uint64) bool {
	n := len(s.blockSessions)
	if n == 0 || s.blockSessions[n-1].revision != revision {
		return false
	}
	sess := s.blockSessions[n-1]
	s.blockSessions = s.blockSessions[:n-1]
	sess.Undo()
	if n >= 2 {
		s.headRevision = s.blockSessions[n-2].revision
	} else {
		s.headRevision = 0
	}
	return true
}

// Commit discards the undo history for every retained block session up to
// and including uptoRevision, making those blocks' changes irreversible.
// It returns the number of sessions committed.
func (s *Store) Commit(uptoRevision uint64) int {
	n := 0
	for len(s.blockSessions) > 0 && s.blockSessions[0].revision <= uptoRevision {
		s.blockSessions[0].log = nil
		s.blockSessions[0].closed = true
		s.blockSessions = s.blockSessions[1:]
		n++
	}
	return n
}

// PendingRevisions returns the still-undoable block revisions, oldest first.
func (s *Store) PendingRevisions() []uint64 {
	out := make([]uint64, len(s.blockSessions))
	for i, sess := range s.blockSessions {
		out[i] = sess.revision
	}
	return out
}
