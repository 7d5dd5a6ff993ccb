package content

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
)

// Store holds the decoded fixtures behind a lock so admin mutations and
// concurrent page reads do not race.
type Store struct {
	mu        sync.RWMutex
	platforms []Platform
	services  []Service
	team      []TeamMember
}

// NewStore decodes the fixture files from fsys, which is expected to hold
// fixtures/platforms.json, fixtures/services.json and fixtures/team.json.
func NewStore(fsys fs.FS) (*Store, error) {
	s := &Store{}
	if err := decodeFixture(fsys, "fixtures/platforms.json", &s.platforms); err != nil {
		return nil, err
	}
	if err := decodeFixture(fsys, "fixtures/services.json", &s.services); err != nil {
		return nil, err
	}
	if err := decodeFixture(fsys, "fixtures/team.json", &s.team); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeFixture(fsys fs.FS, name string, target any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("content: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("content: decode %s: %w", name, err)
	}
	return nil
}

// Platforms returns all platforms in fixture order.
func (s *Store) Platforms() []Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Platform, len(s.platforms))
	copy(out, s.platforms)
	return out
}

// Platform returns one platform by ID.
func (s *Store) Platform(id string) (Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.platforms {
		if p.ID == id {
			return p, nil
		}
	}
	return Platform{}, httpx.ErrNotFound
}

// UpdatePlatform replaces the platform with the given ID. The ID itself is
// immutable.
func (s *Store) UpdatePlatform(id string, updated Platform) (Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.platforms {
		if p.ID == id {
			updated.ID = id
			s.platforms[i] = updated
			return updated, nil
		}
	}
	return Platform{}, httpx.ErrNotFound
}

// Services returns all services in fixture order.
func (s *Store) Services() []Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Service, len(s.services))
	copy(out, s.services)
	return out
}

// Team returns all team members in fixture order.
func (s *Store) Team() []TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TeamMember, len(s.team))
	copy(out, s.team)
	return out
}
