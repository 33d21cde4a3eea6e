package session

import "sync"

// Identity holds the username chosen on the entry screen. It is written before the chat is
// created and read by the chat when it registers with the server.
type Identity struct {
	mu   sync.RWMutex
	name string
}

// NewIdentity returns an empty Identity.
func NewIdentity() *Identity {
	return &Identity{}
}

// Set overwrites the username.
func (i *Identity) Set(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.name = name
}

// Get returns the username, or "" before the first Set.
func (i *Identity) Get() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.name
}
