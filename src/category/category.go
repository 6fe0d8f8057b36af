package category

import (
	"strings"

	"github.com/pkg/errors"
)

// Category selects the kind of numbers a window holds. The value is the
// identifier used in the request path.
type Category string

const (
	Prime     Category = "p"
	Fibonacci Category = "f"
	Even      Category = "e"
	Random    Category = "r"
)

var ErrUnknownCategory = errors.New("unknown category")

var names = map[Category]string{
	Prime:     "prime",
	Fibonacci: "fibonacci",
	Even:      "even",
	Random:    "random",
}

// All returns every category in a stable order.
func All() []Category {
	return []Category{Prime, Fibonacci, Even, Random}
}

// Parse validates a path identifier against the closed set of categories.
func Parse(id string) (Category, error) {
	c := Category(id)
	if _, ok := names[c]; !ok {
		return "", errors.Wrapf(ErrUnknownCategory, "%q (expected one of %s)", id, Accepted())
	}
	return c, nil
}

// Accepted lists the valid identifiers, comma separated.
func Accepted() string {
	ids := make([]string, 0, len(names))
	for _, c := range All() {
		ids = append(ids, string(c))
	}
	return strings.Join(ids, ", ")
}

func (c Category) String() string { return string(c) }

// Name is the human readable name, used for logs and metric labels.
func (c Category) Name() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}
