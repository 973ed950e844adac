package session

import "sync"

// Store is the in-process conversation registry. It is an explicit injected
// object, not a package global, so lifetime and locking stay visible to the
// code that owns it.
//
// Turns against the same conversation id must not interleave: Acquire hands
// out the state together with a per-id lock held for the whole
// plan-execute-commit sequence. Different conversations proceed in parallel.
type Store struct {
	mu     sync.Mutex
	states map[string]*State
	locks  map[string]*sync.Mutex
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{
		states: make(map[string]*State),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Acquire locks the conversation and returns its state, creating it on first
// reference. The returned release function must be called when the turn is
// committed.
func (st *Store) Acquire(conversationID string) (*State, func()) {
	st.mu.Lock()
	lock, ok := st.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		st.locks[conversationID] = lock
	}
	state, ok := st.states[conversationID]
	if !ok {
		state = &State{ConversationID: conversationID}
		st.states[conversationID] = state
	}
	st.mu.Unlock()

	lock.Lock()
	return state, lock.Unlock
}

// View returns a read-only copy of the conversation state, or false if the
// conversation does not exist. The copy shares no mutable slices with the
// live state.
func (st *Store) View(conversationID string) (State, bool) {
	st.mu.Lock()
	lock, ok := st.locks[conversationID]
	state := st.states[conversationID]
	st.mu.Unlock()
	if !ok || state == nil {
		return State{}, false
	}

	lock.Lock()
	defer lock.Unlock()

	view := *state
	view.Turns = make([]Turn, len(state.Turns))
	copy(view.Turns, state.Turns)
	if state.Pending != nil {
		p := *state.Pending
		view.Pending = &p
	}
	return view, true
}
