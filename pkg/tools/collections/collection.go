package collections

import (
	"cmp"
	"slices"
)

func Keys[K comparable, V any](m map[K]V) []K {
	result := make([]K, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	result := Keys(m)
	slices.Sort(result)
	return result
}

func Contains[T comparable](list []T, t T) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func ContainsAny[T comparable](list []T, values ...T) bool {
	for _, v := range values {
		if Contains(list, v) {
			return true
		}
	}
	return false
}

// AppendUnique appends the values not already in list, keeping order.
func AppendUnique[T comparable](list []T, values ...T) []T {
	for _, v := range values {
		if !Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
