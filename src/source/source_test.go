package source

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/average-calculator/src/category"
)

func TestMockSourceSamplesFromPool(t *testing.T) {
	m := NewMockSource(42)

	for _, c := range category.All() {
		inPool := map[int]bool{}
		for _, v := range pools[c] {
			inPool[v] = true
		}

		for i := 0; i < 50; i++ {
			numbers, err := m.Fetch(context.Background(), c)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(numbers), minSample)
			require.LessOrEqual(t, len(numbers), maxSample)

			seen := map[int]bool{}
			for _, n := range numbers {
				assert.True(t, inPool[n], "%d not in %s pool", n, c.Name())
				assert.False(t, seen[n], "duplicate %d in sample", n)
				seen[n] = true
			}
		}
	}
}

func TestMockSourceIsDeterministic(t *testing.T) {
	a, b := NewMockSource(7), NewMockSource(7)
	for i := 0; i < 10; i++ {
		x, err := a.Fetch(context.Background(), category.Random)
		require.NoError(t, err)
		y, err := b.Fetch(context.Background(), category.Random)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

func TestMockSourceHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockSource(1).Fetch(ctx, category.Even)
	assert.Error(t, err)
}

type slowSource struct {
	delay   time.Duration
	numbers []int
}

func (s *slowSource) Fetch(ctx context.Context, _ category.Category) ([]int, error) {
	time.Sleep(s.delay)
	return s.numbers, nil
}

type panicSource struct{}

func (panicSource) Fetch(context.Context, category.Category) ([]int, error) {
	panic("boom")
}

func TestWithTimeout(t *testing.T) {
	fast := WithTimeout(&slowSource{numbers: []int{1, 2}}, time.Second)
	numbers, err := fast.Fetch(context.Background(), category.Prime)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, numbers)

	slow := WithTimeout(&slowSource{delay: 300 * time.Millisecond, numbers: []int{1}}, 20*time.Millisecond)
	start := time.Now()
	_, err = slow.Fetch(context.Background(), category.Prime)
	assert.Equal(t, ErrTimeout, errors.Cause(err))
	assert.Less(t, time.Since(start), 250*time.Millisecond)

	_, err = WithTimeout(panicSource{}, time.Second).Fetch(context.Background(), category.Prime)
	assert.Error(t, err)
}

func newUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, map[category.Category]string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, map[category.Category]string{
		category.Prime:     srv.URL + "/primes",
		category.Fibonacci: srv.URL + "/fibo",
		category.Even:      srv.URL + "/even",
		category.Random:    srv.URL + "/rand",
	}
}

func newHTTPSource(t *testing.T, urls map[category.Category]string, program string, timeout time.Duration) *HTTPSource {
	t.Helper()
	extract, err := CompileExtract(program)
	require.NoError(t, err)
	return NewHTTPSource(urls, "secret", extract, timeout)
}

func TestHTTPSourceFetch(t *testing.T) {
	_, urls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/primes":
			_, _ = w.Write([]byte(`{"numbers": [2, 3, 5, 7]}`))
		case "/fibo":
			_, _ = w.Write([]byte(`{"other": 1}`))
		case "/even":
			_, _ = w.Write([]byte(`{"numbers": [2, 4.5]}`))
		default:
			_, _ = w.Write([]byte(`{"numbers": "nope"}`))
		}
	})
	src := newHTTPSource(t, urls, "", FetchTimeout)

	numbers, err := src.Fetch(context.Background(), category.Prime)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5, 7}, numbers)

	numbers, err = src.Fetch(context.Background(), category.Fibonacci)
	require.NoError(t, err)
	assert.Empty(t, numbers)

	_, err = src.Fetch(context.Background(), category.Even)
	assert.Equal(t, ErrMalformed, errors.Cause(err))

	_, err = src.Fetch(context.Background(), category.Random)
	assert.Equal(t, ErrMalformed, errors.Cause(err))
}

func TestHTTPSourceFailures(t *testing.T) {
	_, urls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/primes":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`down`))
		case "/fibo":
			_, _ = w.Write([]byte(`not json`))
		case "/even":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"numbers": [2]}`))
		}
	})
	src := newHTTPSource(t, urls, "", 50*time.Millisecond)

	_, err := src.Fetch(context.Background(), category.Prime)
	assert.Equal(t, ErrStatus, errors.Cause(err))

	_, err = src.Fetch(context.Background(), category.Fibonacci)
	assert.Equal(t, ErrMalformed, errors.Cause(err))

	start := time.Now()
	_, err = src.Fetch(context.Background(), category.Even)
	assert.Equal(t, ErrTimeout, errors.Cause(err))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestHTTPSourceLargeIntegers(t *testing.T) {
	_, urls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/primes":
			_, _ = w.Write([]byte(`{"numbers": [9007199254740993, -9223372036854775808, 9223372036854775807]}`))
		case "/fibo":
			_, _ = w.Write([]byte(`{"numbers": [1, 9223372036854775808]}`))
		case "/even":
			_, _ = w.Write([]byte(`{"numbers": [2, -9223372036854775809]}`))
		default:
			_, _ = w.Write([]byte(`{"numbers": [4.0, 6]}`))
		}
	})
	src := newHTTPSource(t, urls, "", FetchTimeout)

	numbers, err := src.Fetch(context.Background(), category.Prime)
	require.NoError(t, err)
	assert.Equal(t, []int{9007199254740993, -9223372036854775808, 9223372036854775807}, numbers)

	_, err = src.Fetch(context.Background(), category.Fibonacci)
	assert.Equal(t, ErrMalformed, errors.Cause(err))

	_, err = src.Fetch(context.Background(), category.Even)
	assert.Equal(t, ErrMalformed, errors.Cause(err))

	numbers, err = src.Fetch(context.Background(), category.Random)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 6}, numbers)
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int
		ok       bool
	}{
		{"int", 7, 7, true},
		{"number", json.Number("9007199254740993"), 9007199254740993, true},
		{"number overflow", json.Number("9223372036854775808"), 0, false},
		{"number fraction", json.Number("1.5"), 0, false},
		{"big in range", big.NewInt(-42), -42, true},
		{"big overflow", new(big.Int).Lsh(big.NewInt(1), 63), 0, false},
		{"integral float", 12.0, 12, true},
		{"float 2^63", 0x1p63, 0, false},
		{"float beyond 2^53", 0x1p60, 0, false},
		{"fraction", 0.5, 0, false},
		{"string", "3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := to_int(tt.input)
			if !tt.ok {
				assert.Equal(t, ErrMalformed, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestHTTPSourceCustomExtract(t *testing.T) {
	_, urls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"values": [{"n": 8}, {"n": 13}]}}`))
	})
	src := newHTTPSource(t, urls, "[.data.values[].n]", FetchTimeout)

	numbers, err := src.Fetch(context.Background(), category.Fibonacci)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 13}, numbers)
}

func TestHTTPSourceUnknownCategory(t *testing.T) {
	src := newHTTPSource(t, map[category.Category]string{}, "", FetchTimeout)
	_, err := src.Fetch(context.Background(), category.Prime)
	assert.Error(t, err)
}

func TestCompileExtractRejectsBadProgram(t *testing.T) {
	_, err := CompileExtract(".numbers[")
	assert.Error(t, err)
}
