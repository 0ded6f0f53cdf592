// Package identity supplies the authenticated account id. Providers emit the
// current identity, or the signed-out zero value, on every change.
package identity

import (
	"errors"
	"sync"
)

var (
	ErrSignedOut          = errors.New("signed out")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Identity is an authenticated account. The zero value means signed out.
type Identity struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username,omitempty"`
}

func (i Identity) SignedIn() bool { return i.AccountID != "" }

// Provider reports authentication state. Subscribe delivers the current
// state immediately and then every change until unsubscribe is called.
type Provider interface {
	Current() (Identity, bool)
	Subscribe(fn func(Identity)) (unsubscribe func())
}

// broadcaster holds the current identity and fans changes out to subscribers.
type broadcaster struct {
	mu      sync.Mutex
	current Identity
	nextID  int
	subs    map[int]func(Identity)
}

func (b *broadcaster) Current() (Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.current.SignedIn()
}

func (b *broadcaster) Subscribe(fn func(Identity)) func() {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = map[int]func(Identity){}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	current := b.current
	b.mu.Unlock()

	fn(current)

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *broadcaster) set(next Identity) {
	b.mu.Lock()
	b.current = next
	subs := make([]func(Identity), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Static is a Provider fixed to one identity, for tests and single-user tools.
type Static struct {
	broadcaster
}

func NewStatic(accountID string) *Static {
	s := &Static{}
	s.current = Identity{AccountID: accountID}
	return s
}

// Set replaces the identity and notifies subscribers. An empty id signs out.
func (s *Static) Set(accountID string) {
	s.set(Identity{AccountID: accountID})
}
