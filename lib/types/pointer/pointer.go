// Package pointer helps taking the address of values that are not addressable,
// such as constants and function results.
package pointer

func To[T any](v T) *T { return &v }
