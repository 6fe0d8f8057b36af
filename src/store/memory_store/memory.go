package memory_store

import (
	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/category"
	store_interface "example.com/average-calculator/src/store"
)

// Memory_store keeps one window per category for the lifetime of the process.
// The windows map is built once and never modified, so it is read without a
// lock; each window guards itself.
type Memory_store struct {
	capacity int
	windows  map[category.Category]*Window
}

func New_memory_store(capacity int) *Memory_store {
	if capacity <= 0 {
		logrus.Warnf("New_memory_store: invalid capacity %d, using %d", capacity, store_interface.WindowCapacity)
		capacity = store_interface.WindowCapacity
	}

	store := &Memory_store{
		capacity: capacity,
		windows:  make(map[category.Category]*Window, len(category.All())),
	}
	for _, c := range category.All() {
		store.windows[c] = new_window(c, capacity)
	}
	return store
}

var _ store_interface.Store = (*Memory_store)(nil)

func (store *Memory_store) Update(c category.Category, candidates []int) store_interface.Update {
	window := store.window(c)
	previous, current, added := window.update(candidates)
	return store_interface.Update{
		Previous: previous,
		Current:  current,
		Added:    added,
	}
}

func (store *Memory_store) Snapshot(c category.Category) []int {
	return store.window(c).snapshot()
}

// Sizes reports the current length of every window.
func (store *Memory_store) Sizes() map[category.Category]int {
	sizes := make(map[category.Category]int, len(store.windows))
	for c, window := range store.windows {
		sizes[c] = window.len()
	}
	return sizes
}

func (store *Memory_store) window(c category.Category) *Window {
	window, ok := store.windows[c]
	if !ok {
		// categories are validated at the boundary
		logrus.Panicf("memory_store: no window for category %q", c)
	}
	return window
}
