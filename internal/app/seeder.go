package app

import (
	"context"
	"fmt"

	"mentorship/internal/domain"
)

// Seeder populates a fresh directory with demo participants.
type Seeder struct {
	registry domain.ParticipantRegistry
}

// NewSeeder creates a Seeder writing through registry.
func NewSeeder(registry domain.ParticipantRegistry) *Seeder {
	return &Seeder{registry: registry}
}

var seedCounts = []struct {
	role  domain.Role
	count int
}{
	{domain.RoleStudent, 5},
	{domain.RoleAdmin, 2},
	{domain.RoleMentor, 3},
}

// Seed adds the demo students, admins and mentors. Running it twice leaves
// the same participants in place.
func (s *Seeder) Seed(ctx context.Context) ([]domain.Participant, error) {
	var out []domain.Participant
	for _, sc := range seedCounts {
		for i := range sc.count {
			name := fmt.Sprintf("%s%d", sc.role, i)
			p, err := s.registry.AddParticipant(ctx, domain.Participant{
				Name:  name,
				Email: name + "@test.com",
				Role:  sc.role,
			})
			if err != nil {
				return nil, fmt.Errorf("seed %s: %w", name, err)
			}
			out = append(out, *p)
		}
	}
	return out, nil
}
