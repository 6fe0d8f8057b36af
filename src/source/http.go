package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/itchyny/gojq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/category"
)

// jq program used when the configuration does not name one.
const DefaultExtract = ".numbers // []"

// Upstream error bodies are logged up to this many bytes.
const maxLoggedBody = 512

type HTTPSource struct {
	urls    map[category.Category]string
	token   string
	timeout time.Duration
	extract *gojq.Code
	client  *http.Client
}

// CompileExtract parses and compiles the jq program that turns an upstream
// payload into a list of numbers.
func CompileExtract(program string) (*gojq.Code, error) {
	if program == "" {
		program = DefaultExtract
	}
	query, err := gojq.Parse(program)
	if err != nil {
		return nil, errors.Wrapf(err, "parse extract %q", program)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, errors.Wrapf(err, "compile extract %q", program)
	}
	return code, nil
}

// NewHTTPSource builds the upstream client. timeout bounds the whole exchange
// through the request context, and responses received after it are discarded
// as well.
func NewHTTPSource(urls map[category.Category]string, token string, extract *gojq.Code, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		urls:    urls,
		token:   token,
		timeout: timeout,
		extract: extract,
		client:  &http.Client{},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, c category.Category) ([]int, error) {
	url, ok := s.urls[c]
	if !ok {
		return nil, errors.Errorf("no upstream url for category %s", c.Name())
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	logrus.Infof("http_source.fetch %s: calling %s", c.Name(), url)
	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(ErrTimeout, "%s after %s", url, time.Since(start))
		}
		return nil, errors.Wrapf(err, "get %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(ErrTimeout, "%s after %s", url, elapsed)
		}
		return nil, errors.Wrapf(err, "read body %s", url)
	}

	logrus.Infof("http_source.fetch %s: HTTP %d in %s", c.Name(), resp.StatusCode, elapsed)

	if elapsed > s.timeout {
		return nil, errors.Wrapf(ErrTimeout, "%s took %s", url, elapsed)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrStatus, "%s: %d %s", url, resp.StatusCode, truncate(body))
	}

	numbers, err := s.parse(ctx, body)
	if err != nil {
		return nil, errors.Wrap(err, url)
	}

	logrus.Debugf("http_source.fetch %s: got %v", c.Name(), numbers)
	return numbers, nil
}

func (s *HTTPSource) parse(ctx context.Context, body []byte) ([]int, error) {
	// numbers stay exact: json.Number is normalised by gojq to int or *big.Int
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "unmarshal: %v", err)
	}
	if decoder.More() {
		return nil, errors.Wrap(ErrMalformed, "unmarshal: trailing data")
	}

	iter := s.extract.RunWithContext(ctx, payload)
	v, ok := iter.Next()
	if !ok {
		return []int{}, nil
	}
	if err, ok := v.(error); ok {
		return nil, errors.Wrapf(ErrMalformed, "extract: %v", err)
	}

	return to_ints(v)
}

func to_ints(v any) ([]int, error) {
	switch list := v.(type) {
	case nil:
		return []int{}, nil
	case []any:
		numbers := make([]int, 0, len(list))
		for _, item := range list {
			n, err := to_int(item)
			if err != nil {
				return nil, err
			}
			numbers = append(numbers, n)
		}
		return numbers, nil
	default:
		return nil, errors.Wrapf(ErrMalformed, "expected a list, got %T", v)
	}
}

func to_int(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, strconv.IntSize)
		if err != nil {
			return 0, errors.Wrapf(ErrMalformed, "not an integer: %s", n)
		}
		return int(i), nil
	case *big.Int:
		if !n.IsInt64() || int64(int(n.Int64())) != n.Int64() {
			return 0, errors.Wrapf(ErrMalformed, "integer out of range: %s", n)
		}
		return int(n.Int64()), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= 0x1p63 || n < -0x1p63 {
			return 0, errors.Wrapf(ErrMalformed, "not an integer: %v", n)
		}
		// integral floats beyond 2^53 may already have lost precision
		if math.Abs(n) > 1<<53 {
			return 0, errors.Wrapf(ErrMalformed, "integer not exact: %v", n)
		}
		return int(n), nil
	default:
		return 0, errors.Wrapf(ErrMalformed, "not a number: %s", fmt.Sprint(v))
	}
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
