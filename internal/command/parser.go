// Package command parses one line of user text into a typed command.
//
// A Parser is built once from a rule table. Each rule maps one or more
// case-insensitive trigger words to a command and a fixed list of argument
// types. Input whose first word is not a trigger is handed as a whole to the
// default rule, so "7.25" can mean "play 7.25 seconds" without a keyword.
//
//	p := command.New(
//		command.DefaultRule[Input]{Command: Duration, Arg: command.Float},
//		command.Rule[Input]{Command: Next, Triggers: []string{"n", "next"}},
//		command.Rule[Input]{Command: StartTime, Triggers: []string{"s", "start"}, Args: []command.ArgType{command.Float}},
//	)
//	res, err := p.Parse("start 12.5") // StartTime, [12.5]
package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidInput is matched by every parse failure.
var ErrInvalidInput = errors.New("invalid input")

// ParseError describes why a line was rejected.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidInput
}

// Rule maps trigger words to a command with positional arguments.
type Rule[T comparable] struct {
	Command  T
	Triggers []string
	Args     []ArgType
}

// DefaultRule applies to input that does not start with a trigger. The whole
// line is one argument.
type DefaultRule[T comparable] struct {
	Command T
	Arg     ArgType
}

// Result is a successfully parsed command.
type Result[T comparable] struct {
	Command T
	Args    []any
}

// Float returns argument i as float64.
func (r Result[T]) Float(i int) float64 {
	v, _ := r.arg(i).(float64)
	return v
}

// Int returns argument i as int.
func (r Result[T]) Int(i int) int {
	v, _ := r.arg(i).(int)
	return v
}

// Text returns argument i as string.
func (r Result[T]) Text(i int) string {
	v, _ := r.arg(i).(string)
	return v
}

func (r Result[T]) arg(i int) any {
	if i < 0 || i >= len(r.Args) {
		return nil
	}
	return r.Args[i]
}

type action[T comparable] struct {
	command T
	args    []ArgType
}

// Parser matches lines against a fixed rule table. It is immutable after
// New and safe for concurrent use.
type Parser[T comparable] struct {
	def      action[T]
	actions  map[string]action[T]
	triggers map[T][]string
}

// New builds a parser. Triggers are case-folded; when two rules register the
// same trigger the later rule wins.
func New[T comparable](def DefaultRule[T], rules ...Rule[T]) *Parser[T] {
	p := &Parser[T]{
		def:      action[T]{command: def.Command, args: []ArgType{def.Arg}},
		actions:  make(map[string]action[T]),
		triggers: make(map[T][]string),
	}
	for _, rule := range rules {
		a := action[T]{command: rule.Command, args: append([]ArgType(nil), rule.Args...)}
		for _, trigger := range rule.Triggers {
			key := strings.ToLower(trigger)
			p.actions[key] = a
			p.triggers[rule.Command] = append(p.triggers[rule.Command], key)
		}
	}
	return p
}

// Triggers returns the trigger words registered for cmd, in registration order.
func (p *Parser[T]) Triggers(cmd T) []string {
	var out []string
	for _, t := range p.triggers[cmd] {
		if a, ok := p.actions[t]; ok && a.command == cmd {
			out = append(out, t)
		}
	}
	return out
}

// Parse converts line into a command and its typed arguments.
func (p *Parser[T]) Parse(line string) (Result[T], error) {
	first, rest := splitFirst(line)

	if a, ok := p.actions[strings.ToLower(first)]; ok {
		return a.parse(line, strings.Fields(rest))
	}

	// the default rule takes the whole line as a single token, spaces included
	return p.def.parse(line, []string{strings.TrimSpace(line)})
}

func (a action[T]) parse(line string, tokens []string) (Result[T], error) {
	if len(tokens) != len(a.args) {
		return Result[T]{}, &ParseError{
			Input:  line,
			Reason: fmt.Sprintf("%d arguments expected, %d actually received", len(a.args), len(tokens)),
		}
	}
	args := make([]any, len(tokens))
	for i, tok := range tokens {
		if a.args[i].Convert == nil {
			return Result[T]{}, &ParseError{Input: line, Reason: "no converter for argument"}
		}
		v, err := a.args[i].Convert(tok)
		if err != nil {
			return Result[T]{}, &ParseError{
				Input:  line,
				Reason: fmt.Sprintf("argument %d is not a valid %s", i+1, a.args[i].Name),
			}
		}
		args[i] = v
	}
	return Result[T]{Command: a.command, Args: args}, nil
}

// splitFirst splits s at the first run of whitespace, ignoring leading
// whitespace.
func splitFirst(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
