package identity

import "context"

// StaticProvider serves profiles from a fixed in-memory set. It backs local
// development and tests, where no external identity provider is reachable.
type StaticProvider struct {
	profiles map[string]Profile
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider over the given profiles.
func NewStaticProvider(profiles ...Profile) *StaticProvider {
	byID := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return &StaticProvider{profiles: byID}
}

// Add registers a profile.
func (s *StaticProvider) Add(p Profile) {
	s.profiles[p.ID] = p
}

// GetProfiles returns the known profiles among ids. Unknown ids are absent
// from the result, as with the real provider.
func (s *StaticProvider) GetProfiles(ctx context.Context, ids []string) ([]Profile, error) {
	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
