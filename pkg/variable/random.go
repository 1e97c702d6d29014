package variable

import (
	"math/rand"
	"strconv"
)

// randomNumber draws a uniform value in [min, max] on every call;
// stateless across calls beyond its own random source.
type randomNumber struct {
	name string
	min  int64
	max  int64
	rnd  *rand.Rand
}

func newRandomNumber(name string, min, max int64) *randomNumber {
	return &randomNumber{
		name: name,
		min:  min,
		max:  max,
		rnd:  rand.New(rand.NewSource(rand.Int63())),
	}
}

func (r *randomNumber) Name() string { return r.name }

func (r *randomNumber) Next() string {
	span := r.max - r.min + 1
	v := r.min + r.rnd.Int63n(span)
	return strconv.FormatInt(v, 10)
}
