package command

import (
	"strconv"
)

// ArgType converts one whitespace-free token into a typed value.
type ArgType struct {
	Name    string
	Convert func(token string) (any, error)
}

var (
	// Float parses a decimal number into float64.
	Float = ArgType{Name: "decimal_number", Convert: func(s string) (any, error) {
		return strconv.ParseFloat(s, 64)
	}}

	// Int parses a base 10 integer into int.
	Int = ArgType{Name: "integer_number", Convert: func(s string) (any, error) {
		return strconv.Atoi(s)
	}}

	// String passes the token through unchanged.
	String = ArgType{Name: "text", Convert: func(s string) (any, error) {
		return s, nil
	}}
)
