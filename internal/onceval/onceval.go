// Package onceval provides small set-once value cells with lock-free
// reads, shared by the pipeline and lifecycle packages for their
// once-settable configuration fields (root span name, sampling period,
// shutdown token/status/signal).
package onceval

import (
	"sync"
	"sync/atomic"
)

// String is a set-once string cell. Set reports whether this call was the
// one that won; Get never blocks and falls back to a default until Set
// succeeds.
type String struct {
	once sync.Once
	val  atomic.Pointer[string]
	def  string
}

func NewString(def string) *String { return &String{def: def} }

func (s *String) Set(v string) (won bool) {
	s.once.Do(func() {
		s.val.Store(&v)
		won = true
	})
	return won
}

func (s *String) Get() string {
	if p := s.val.Load(); p != nil {
		return *p
	}
	return s.def
}

// Int is the int64 analogue of String.
type Int struct {
	once sync.Once
	val  atomic.Int64
	has  atomic.Bool
	def  int64
}

func NewInt(def int64) *Int { return &Int{def: def} }

func (o *Int) Set(v int64) (won bool) {
	o.once.Do(func() {
		o.val.Store(v)
		o.has.Store(true)
		won = true
	})
	return won
}

func (o *Int) Get() int64 {
	if o.has.Load() {
		return o.val.Load()
	}
	return o.def
}

// Bool is the bool analogue of String.
type Bool struct {
	once sync.Once
	val  atomic.Bool
	has  atomic.Bool
	def  bool
}

func NewBool(def bool) *Bool { return &Bool{def: def} }

func (o *Bool) Set(v bool) (won bool) {
	o.once.Do(func() {
		o.val.Store(v)
		o.has.Store(true)
		won = true
	})
	return won
}

func (o *Bool) Get() bool {
	if o.has.Load() {
		return o.val.Load()
	}
	return o.def
}
