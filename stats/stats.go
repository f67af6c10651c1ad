// Package stats provides the metric side of the engine: typed values,
// pollable sources and the cache that decouples slow sensors from frame
// composition.
package stats

import (
	"fmt"
	"strconv"
	"time"
)

type Kind uint8

const (
	// Unavailable is a normal renderable state, not an error: widgets show
	// their fallback instead.
	Unavailable Kind = iota
	Number
	Text
)

type Value struct {
	Kind Kind
	Num  float64
	Text string
	Unit string
}

var None = Value{}

func Num(v float64, unit string) Value { return Value{Kind: Number, Num: v, Unit: unit} }
func Str(s string) Value               { return Value{Kind: Text, Text: s} }

func (v Value) Available() bool { return v.Kind != Unavailable }

// Display renders the value for a text widget; fallback covers Unavailable.
func (v Value) Display(fallback string) string {
	switch v.Kind {
	case Number:
		s := strconv.FormatFloat(v.Num, 'f', -1, 64)
		if v.Unit != "" {
			s += v.Unit
		}
		return s
	case Text:
		return v.Text
	}
	return fallback
}

func (v Value) String() string {
	if !v.Available() {
		return "unavailable"
	}
	return fmt.Sprintf("%s(kind=%d)", v.Display(""), v.Kind)
}

// Source is a single named metric provider. Read may block on slow OS or
// hardware queries; it is only ever called from the source's own poller.
type Source interface {
	Key() string
	Interval() time.Duration
	Read() (Value, error)
}

// FuncSource adapts a closure, mostly for tests and simple gauges.
type FuncSource struct {
	SourceKey    string
	PollInterval time.Duration
	ReadFunc     func() (Value, error)
}

func (f *FuncSource) Key() string             { return f.SourceKey }
func (f *FuncSource) Interval() time.Duration { return f.PollInterval }
func (f *FuncSource) Read() (Value, error)    { return f.ReadFunc() }
