// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapTransformsEachValue(t *testing.T) {
	f := Map(NewFlux[int](RangeSource([]int{1, 2, 3})), func(v int) string {
		return strconv.Itoa(v * 10)
	})

	var got []string
	f.Subscribe(func(v string) { got = append(got, v) })

	assert.Equal(t, []string{"10", "20", "30"}, got)
}

func TestMapMonoTransformsValue(t *testing.T) {
	m := MapMono(JustMono(3), func(v int) int { return v * v })

	var got int
	m.Subscribe(func(v int) { got = v })
	assert.Equal(t, 9, got)
}

func TestFilterSkipsNonMatchingValues(t *testing.T) {
	f := Filter(NewFlux[int](RangeSource([]int{1, 2, 3, 4, 5, 6})), func(v int) bool {
		return v%2 == 0
	})

	var got []int
	f.Subscribe(func(v int) { got = append(got, v) })

	assert.Equal(t, []int{2, 4, 6}, got)
}

func TestFilterExhaustsWithoutMatch(t *testing.T) {
	f := Filter(NewFlux[int](RangeSource([]int{1, 3, 5})), func(v int) bool {
		return v%2 == 0
	})

	var got []int
	f.Subscribe(func(v int) { got = append(got, v) })

	assert.Empty(t, got)
}

func TestFilterThenMapComposes(t *testing.T) {
	evens := Filter(NewFlux[int](RangeSource([]int{1, 2, 3, 4})), func(v int) bool { return v%2 == 0 })
	doubled := Map(evens, func(v int) int { return v * 2 })

	var got []int
	doubled.Subscribe(func(v int) { got = append(got, v) })

	assert.Equal(t, []int{4, 8}, got)
}
