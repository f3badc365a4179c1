package domain

// MostCommonIntegers returns every value that occurs with the highest
// frequency in numbers, in order of first appearance.
func MostCommonIntegers(numbers []int) []int {
	if len(numbers) == 0 {
		return []int{}
	}

	counts := make(map[int]int, len(numbers))
	var order []int
	best := 0
	for _, n := range numbers {
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
		best = max(best, counts[n])
	}

	out := make([]int, 0, len(order))
	for _, n := range order {
		if counts[n] == best {
			out = append(out, n)
		}
	}
	return out
}
