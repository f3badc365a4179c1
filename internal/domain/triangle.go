package domain

import (
	"fmt"
	"math"
	"strings"
)

// TriangleArea returns the area of the triangle with the given side lengths
// using Heron's formula.
func TriangleArea(first, second, third int) (float64, error) {
	if err := validateSides(first, second, third); err != nil {
		return 0, err
	}
	if err := validateInequality(first, second, third); err != nil {
		return 0, err
	}

	a, b, c := float64(first), float64(second), float64(third)
	s := (a + b + c) / 2
	return math.Sqrt(s * (s - a) * (s - b) * (s - c)), nil
}

func validateSides(first, second, third int) error {
	sides := []struct {
		name  string
		value int
	}{{"first", first}, {"second", second}, {"third", third}}

	var bad []string
	for _, s := range sides {
		if s.value <= 0 {
			bad = append(bad, fmt.Sprintf("%s: %d", s.name, s.value))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return invalid(ErrInvalidTriangle,
		"All sides must be greater than 0. Negative sides: "+strings.Join(bad, ", "))
}

// validateInequality sums in float64 so large sides cannot overflow.
func validateInequality(first, second, third int) error {
	a, b, c := float64(first), float64(second), float64(third)

	var bad []string
	if !(a+b > c) {
		bad = append(bad, fmt.Sprintf("first(%d) + second(%d) is not greater than third(%d)", first, second, third))
	}
	if !(a+c > b) {
		bad = append(bad, fmt.Sprintf("first(%d) + third(%d) is not greater than second(%d)", first, third, second))
	}
	if !(b+c > a) {
		bad = append(bad, fmt.Sprintf("second(%d) + third(%d) is not greater than first(%d)", second, third, first))
	}
	if len(bad) == 0 {
		return nil
	}
	return invalid(ErrInvalidTriangle,
		"Sum of any two sides must exceed the third. "+strings.Join(bad, ", "))
}
