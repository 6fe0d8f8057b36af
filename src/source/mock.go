package source

import (
	"context"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/category"
)

const (
	minSample = 1
	maxSample = 5
)

var pools = map[category.Category][]int{
	category.Prime:     {2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47},
	category.Fibonacci: {1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144},
	category.Even:      {2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24},
	category.Random:    randomPool(),
}

func randomPool() []int {
	pool := make([]int, 0, 99)
	for i := 1; i < 100; i++ {
		pool = append(pool, i)
	}
	return pool
}

// MockSource generates test data so the upstream service is not needed during
// development. Each fetch is a sample of 1 to 5 distinct values from the
// category's pool; the sequence is fixed by the seed.
type MockSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockSource(seed int64) *MockSource {
	return &MockSource{rnd: rand.New(rand.NewSource(seed))}
}

func (m *MockSource) Fetch(ctx context.Context, c category.Category) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := pools[c]

	m.mu.Lock()
	k := minSample + m.rnd.Intn(maxSample-minSample+1)
	if k > len(pool) {
		k = len(pool)
	}
	sample := make([]int, k)
	for i, idx := range m.rnd.Perm(len(pool))[:k] {
		sample[i] = pool[idx]
	}
	m.mu.Unlock()

	logrus.Infof("mock_source.fetch %s: using test data %v", c.Name(), sample)
	return sample, nil
}
