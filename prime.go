package maglev

// nextPrime returns the smallest prime greater than or equal to x.
//
// Table sizes must be prime so that every per-node visiting sequence
// (offset + k*skip mod m) touches each slot exactly once per cycle.
func nextPrime(x int) int {
	if x < 2 {
		return 2
	}
	for !isPrime(x) {
		x++
	}
	return x
}

func isPrime(x int) bool {
	if x%2 == 0 {
		return x == 2
	}
	for d := 3; d*d <= x; d += 2 {
		if x%d == 0 {
			return false
		}
	}
	return true
}
