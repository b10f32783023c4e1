package maglev

import (
	"strconv"
	"testing"
)

func TestNextPrime(t *testing.T) {
	for _, test := range []struct {
		x   int
		exp int
	}{
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 3},
		{4, 5},
		{100, 101},
		{200, 211},
		{700, 701},
		{701, 701},
		{1000, 1009},
		{65536, 65537},
	} {
		t.Run(strconv.Itoa(test.x), func(t *testing.T) {
			if act := nextPrime(test.x); act != test.exp {
				t.Errorf("nextPrime(%d) = %d; want %d", test.x, act, test.exp)
			}
		})
	}
}
