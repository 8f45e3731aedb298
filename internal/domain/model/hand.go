// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Hand identifies the playing hand.
type Hand int

// Hands. Unplayable marks an event no hand could play.
const (
	Unplayable Hand = -1
	Left       Hand = 0
	Right      Hand = 1
)

// Hands lists both hands in canonical order.
var Hands = [...]Hand{Left, Right} //nolint:gochecknoglobals // fixed enumeration

func (h Hand) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unplayable"
	}
}

// Valid reports whether h is a real hand.
func (h Hand) Valid() bool { return h == Left || h == Right }

// ParseHand accepts "left"/"l" and "right"/"r" case-insensitively.
func ParseHand(s string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "unplayable", "":
		return Unplayable, nil
	}
	return Unplayable, fmt.Errorf("unknown hand: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (h Hand) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hand) UnmarshalText(b []byte) error {
	v, err := ParseHand(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Finger identifies a finger. The numeric order is the anatomical order
// thumb -> pinky and is relied upon by the finger-order check.
type Finger int

// Fingers. NoFinger accompanies Unplayable.
const (
	NoFinger Finger = -1
	Thumb    Finger = 0
	Index    Finger = 1
	Middle   Finger = 2
	Ring     Finger = 3
	Pinky    Finger = 4
)

// FingerCount is the number of fingers per hand.
const FingerCount = 5

// Fingers lists the fingers in enumeration order.
var Fingers = [...]Finger{Thumb, Index, Middle, Ring, Pinky} //nolint:gochecknoglobals // fixed enumeration

var fingerNames = [...]string{"thumb", "index", "middle", "ring", "pinky"} //nolint:gochecknoglobals // fixed enumeration

func (f Finger) String() string {
	if f.Valid() {
		return fingerNames[f]
	}
	return "none"
}

// Valid reports whether f is a real finger.
func (f Finger) Valid() bool { return f >= Thumb && f <= Pinky }

// ParseFinger accepts finger names and their 1-based numbers ("1" = thumb).
func ParseFinger(s string) (Finger, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none":
		return NoFinger, nil
	case "1":
		return Thumb, nil
	case "2":
		return Index, nil
	case "3":
		return Middle, nil
	case "4":
		return Ring, nil
	case "5":
		return Pinky, nil
	}
	for i, name := range fingerNames {
		if s == name {
			return Finger(i), nil
		}
	}
	return NoFinger, fmt.Errorf("unknown finger: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Finger) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Finger) UnmarshalText(b []byte) error {
	v, err := ParseFinger(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// FingerKey is the key used for per-finger maps in results, e.g. "left-index".
func FingerKey(h Hand, f Finger) string {
	return h.String() + "-" + f.String()
}

// Assignment is a (hand, finger) pair.
type Assignment struct {
	Hand   Hand   `json:"hand" yaml:"hand"`
	Finger Finger `json:"finger" yaml:"finger"`
}

func (a Assignment) String() string { return FingerKey(a.Hand, a.Finger) }

// Overrides forces assignments by event index (the index in the caller's event list).
type Overrides map[int]Assignment
