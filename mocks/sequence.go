package mocks

import (
	"context"
	"sync"
)

type Sequence struct {
	mock sync.Mutex

	values map[int]int64

	Err error
}

func NewSequence() *Sequence {
	return &Sequence{values: make(map[int]int64)}
}

func (s *Sequence) Next(ctx context.Context, year int) (int64, error) {
	s.mock.Lock()
	defer s.mock.Unlock()

	if s.Err != nil {
		return 0, s.Err
	}

	s.values[year]++
	return s.values[year], nil
}
