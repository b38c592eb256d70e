package loader

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// NewSource returns a seeded random source. A zero seed is replaced by one
// derived from the clock; the seed actually used is returned so a run can be
// repeated.
func NewSource(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// TrainSize is the number of training samples for n samples and fraction f.
func TrainSize(n int, f float64) int {
	return int(math.Floor(f * float64(n)))
}

func checkFraction(f float64) error {
	if !(f > 0 && f < 1) {
		return fmt.Errorf("split fraction must be in (0, 1), got %v", f)
	}
	return nil
}

// Split draws floor(f*n) of the n sample indices uniformly without
// replacement as the training set; the rest form the validation set. Both
// index sets are returned in ascending order.
func Split(n int, f float64, rng *rand.Rand) (train, valid []int, err error) {
	if err := checkFraction(f); err != nil {
		return nil, nil, err
	}
	indices := rng.Perm(n)
	nTrain := TrainSize(n, f)
	train = append([]int(nil), indices[:nTrain]...)
	valid = append([]int(nil), indices[nTrain:]...)
	sort.Ints(train)
	sort.Ints(valid)
	return train, valid, nil
}

// StratifiedSplit splits each class separately so both partitions keep the
// class proportions. Each class contributes floor(f*n_c) training samples and
// the remaining slots up to floor(f*n) go to the classes with the largest
// fractional parts, so the training size matches Split.
func StratifiedSplit(classes []int, f float64, rng *rand.Rand) (train, valid []int, err error) {
	if err := checkFraction(f); err != nil {
		return nil, nil, err
	}
	byClass := map[int][]int{}
	var keys []int
	for i, c := range classes {
		if _, ok := byClass[c]; !ok {
			keys = append(keys, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	sort.Ints(keys)

	quota := make(map[int]int, len(keys))
	type remainder struct {
		class int
		frac  float64
	}
	rems := make([]remainder, 0, len(keys))
	assigned := 0
	for _, c := range keys {
		exact := f * float64(len(byClass[c]))
		quota[c] = int(math.Floor(exact))
		assigned += quota[c]
		rems = append(rems, remainder{class: c, frac: exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; assigned < TrainSize(len(classes), f) && k < len(rems); k++ {
		quota[rems[k].class]++
		assigned++
	}

	for _, c := range keys {
		members := byClass[c]
		perm := rng.Perm(len(members))
		for k, p := range perm {
			if k < quota[c] {
				train = append(train, members[p])
			} else {
				valid = append(valid, members[p])
			}
		}
	}
	sort.Ints(train)
	sort.Ints(valid)
	return train, valid, nil
}
