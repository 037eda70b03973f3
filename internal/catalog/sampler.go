package catalog

import (
	"math/rand/v2"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// DefaultSampleSize is how many watches a request shows.
const DefaultSampleSize = 5

// Sampler draws recommendations from a catalog.
type Sampler struct {
	catalog *Catalog
	size    int
	// perm returns a random permutation of [0,n). Nil uses the unseeded
	// global source, so results vary per request.
	perm func(n int) []int
}

func NewSampler(c *Catalog, size int) *Sampler {
	if c == nil {
		c = Empty()
	}
	if size <= 0 {
		size = DefaultSampleSize
	}
	return &Sampler{catalog: c, size: size}
}

// WithSource returns a copy drawing from rng, for reproducible sampling.
func (s *Sampler) WithSource(rng *rand.Rand) *Sampler {
	cp := *s
	cp.perm = rng.Perm
	return &cp
}

// Sample returns up to size watches of the given brands. With more matches
// than size it samples without replacement; otherwise it returns every match
// in catalog order.
func (s *Sampler) Sample(brands []string) []models.Watch {
	matches := s.catalog.Matching(brands)
	if len(matches) <= s.size {
		return matches
	}

	perm := rand.Perm
	if s.perm != nil {
		perm = s.perm
	}
	idx := perm(len(matches))[:s.size]

	out := make([]models.Watch, s.size)
	for i, j := range idx {
		out[i] = matches[j]
	}
	return out
}
