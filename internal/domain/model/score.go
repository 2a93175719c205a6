package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Score bounds for a single shot.
const (
	MinScore = 0
	MaxScore = 10
)

// Score is the value of one shot. The zero value is unset.
type Score struct {
	value int
	set   bool
}

// ScoreOf returns a set score. Callers are responsible for the 0..10 range.
func ScoreOf(v int) Score { return Score{value: v, set: true} }

// ScoreFromPtr converts a nullable int into a Score.
func ScoreFromPtr(p *int) Score {
	if p == nil {
		return Score{}
	}
	return ScoreOf(*p)
}

// Int returns the value and whether the shot has been scored.
func (s Score) Int() (int, bool) { return s.value, s.set }

// IsSet reports whether the shot has been scored.
func (s Score) IsSet() bool { return s.set }

// IsPerfect reports whether the shot scored exactly MaxScore.
func (s Score) IsPerfect() bool { return s.set && s.value == MaxScore }

// Points is the contribution to a total; unset shots count as zero.
func (s Score) Points() int {
	if !s.set {
		return 0
	}
	return s.value
}

// Ptr returns the value as a nullable int.
func (s Score) Ptr() *int {
	if !s.set {
		return nil
	}
	v := s.value
	return &v
}

func (s Score) String() string {
	if !s.set {
		return "-"
	}
	return fmt.Sprintf("%d", s.value)
}

// MarshalJSON encodes an unset score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON accepts null or an integer in range.
func (s *Score) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Score{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: score: %v", ErrSerialization, err)
	}
	if v < MinScore || v > MaxScore {
		return fmt.Errorf("%w: score %d out of range", ErrSerialization, v)
	}
	*s = ScoreOf(v)
	return nil
}
