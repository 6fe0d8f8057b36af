package memory_store

import (
	"sync"

	"github.com/chrispappas/golang-generics-set/set"
	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/category"
)

type Window struct {
	category category.Category
	capacity int

	values  *deque.Deque[int]
	members set.Set[int]

	mutex sync.Mutex
}

func new_window(c category.Category, capacity int) *Window {
	return &Window{
		category: c,
		capacity: capacity,
		values:   deque.New[int](0, capacity+1),
		members:  set.FromSlice([]int{}),
	}
}

/*
 *	Merges candidates into the window and returns (previous, current, added).
 *	Eviction happens after the whole batch is merged, so a value evicted by this
 *	call can not be re-added by a later candidate of the same call.
 */
func (window *Window) update(candidates []int) (previous []int, current []int, added []int) {
	window.mutex.Lock()
	defer window.mutex.Unlock()

	previous = window._snapshot()
	added = make([]int, 0, len(candidates))

	for _, v := range candidates {
		if window.members.Has(v) {
			continue
		}
		window.values.PushBack(v)
		window.members.Add(v)
		added = append(added, v)
	}

	for window.values.Len() > window.capacity {
		evicted := window.values.PopFront()
		delete(window.members, evicted)
	}

	current = window._snapshot()

	logrus.Tracef("window.update %s: previous=%v current=%v added=%v", window.category, previous, current, added)

	return previous, current, added
}

func (window *Window) snapshot() []int {
	window.mutex.Lock()
	defer window.mutex.Unlock()

	return window._snapshot()
}

/*
 *	Only use when a lock has been aquired beforehand
 */
func (window *Window) _snapshot() []int {
	rep := make([]int, window.values.Len())
	for i := range rep {
		rep[i] = window.values.At(i)
	}
	return rep
}

func (window *Window) len() int {
	window.mutex.Lock()
	defer window.mutex.Unlock()

	return window.values.Len()
}
