package pipeline

import (
	"fmt"

	"github.com/zapdos-labs/videopipeline/internal/onceval"
)

// onceString is a set-once string cell with a lock-free default-on-read.
// Setting it a second time fails with ErrAlreadySet; reading never blocks.
type onceString struct {
	cell *onceval.String
}

func newOnceString(def string) *onceString {
	return &onceString{cell: onceval.NewString(def)}
}

func (o *onceString) Set(v string) error {
	if !o.cell.Set(v) {
		return fmt.Errorf("root span name: %w", ErrAlreadySet)
	}
	return nil
}

func (o *onceString) Get() string { return o.cell.Get() }

// onceInt is the int64 analogue of onceString.
type onceInt struct {
	cell *onceval.Int
}

func newOnceInt(def int64) *onceInt {
	return &onceInt{cell: onceval.NewInt(def)}
}

func (o *onceInt) Set(v int64) error {
	if !o.cell.Set(v) {
		return fmt.Errorf("sampling period: %w", ErrAlreadySet)
	}
	return nil
}

func (o *onceInt) Get() int64 { return o.cell.Get() }
