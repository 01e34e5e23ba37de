// Package memory keeps every record in process memory. It backs local
// development with STORE_DRIVER=memory and the service and route tests.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

type Store struct {
	mu           sync.RWMutex
	users        map[string]*userRecord
	loans        map[string]*loanRecord
	applications map[string]*applicationRecord
}

func NewStore() *Store {
	return &Store{
		users:        map[string]*userRecord{},
		loans:        map[string]*loanRecord{},
		applications: map[string]*applicationRecord{},
	}
}

func newID() string {
	return uuid.NewString()
}

// newestFirst sorts by creation time, breaking ties on insertion order.
func newestFirst[T any](items []T, seq func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return seq(items[i]) > seq(items[j]) })
}
