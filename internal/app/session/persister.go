package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	// TokenSlot is the name of the persisted credential token slot.
	TokenSlot = "token"

	// UserSlot is the name of the persisted identity slot.
	UserSlot = "user"
)

// Persister is the durable local storage the session is saved to.
// Both slots are always written and cleared together.
type Persister interface {
	// Load returns the two slots; a missing slot is returned as "".
	Load() (token, identity string, err error)

	// Save writes both slots.
	Save(token, identity string) error

	// Clear removes both slots.
	Clear() error
}

// FilePersister keeps each slot in its own file inside a state directory.
type FilePersister struct {
	dir string
}

// NewFilePersister creates the state directory if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FilePersister{dir: dir}, nil
}

func (p *FilePersister) path(slot string) string {
	return filepath.Join(p.dir, slot)
}

func (p *FilePersister) read(slot string) (string, error) {
	b, err := os.ReadFile(p.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s slot: %w", slot, err)
	}
	return string(b), nil
}

// write replaces a slot atomically via a temp file and rename.
func (p *FilePersister) write(slot, value string) error {
	tmp, err := os.CreateTemp(p.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s slot: %w", slot, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s slot: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s slot: %w", slot, err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod %s slot: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), p.path(slot)); err != nil {
		return fmt.Errorf("rename %s slot: %w", slot, err)
	}
	return nil
}

// Load implements Persister.
func (p *FilePersister) Load() (string, string, error) {
	token, err := p.read(TokenSlot)
	if err != nil {
		return "", "", err
	}
	identity, err := p.read(UserSlot)
	if err != nil {
		return "", "", err
	}
	return token, identity, nil
}

// Save implements Persister.
func (p *FilePersister) Save(token, identity string) error {
	if err := p.write(TokenSlot, token); err != nil {
		return err
	}
	return p.write(UserSlot, identity)
}

// Clear implements Persister.
func (p *FilePersister) Clear() error {
	var errList []error
	for _, slot := range []string{TokenSlot, UserSlot} {
		if err := os.Remove(p.path(slot)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// MemoryPersister keeps the slots in memory, for tests and ephemeral runs.
type MemoryPersister struct {
	mu    sync.Mutex
	slots map[string]string
}

// NewMemoryPersister returns an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{slots: make(map[string]string)}
}

// Set writes a single slot, bypassing Save. Tests use it to seed partial state.
func (m *MemoryPersister) Set(slot, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = value
}

// Get reads a single slot.
func (m *MemoryPersister) Get(slot string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[slot]
}

// Load implements Persister.
func (m *MemoryPersister) Load() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[TokenSlot], m.slots[UserSlot], nil
}

// Save implements Persister.
func (m *MemoryPersister) Save(token, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[TokenSlot] = token
	m.slots[UserSlot] = identity
	return nil
}

// Clear implements Persister.
func (m *MemoryPersister) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, TokenSlot)
	delete(m.slots, UserSlot)
	return nil
}
