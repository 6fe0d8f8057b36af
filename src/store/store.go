package store

import (
	"example.com/average-calculator/src/category"
)

// Maximum number of values a window retains.
const WindowCapacity = 10

// Result of merging a batch of numbers into a window. All slices are copies.
type Update struct {
	Previous []int
	Current  []int
	Added    []int
}

type Store interface {
	/*
	 *	c - category of the window
	 *	candidates - numbers to merge, in order (duplicates allowed)
	 */
	Update(c category.Category, candidates []int) Update

	/*
	 * returns a copy of the current window, without changing it
	 */
	Snapshot(c category.Category) []int
}
