// Package tournament derives and validates the shape of a tournament:
// how many targets are shot and how many shots go at each target.
package tournament

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Shape bounds accepted by Validate.
const (
	MinTargets        = 1
	MaxTargets        = 100
	MinShotsPerTarget = 1
	MaxShotsPerTarget = 20

	smallMaxTargets  = 4
	mediumMaxTargets = 20
)

// Type is the categorical size of a tournament. The zero value means the
// category is undefined (target count below one).
type Type string

// Tournament categories, keyed by target count.
const (
	TypeNone   Type = ""
	TypeSmall  Type = "small-targets"
	TypeMedium Type = "medium-targets"
	TypeLarge  Type = "large-targets"
)

// MarshalJSON encodes TypeNone as null.
func (t Type) MarshalJSON() ([]byte, error) {
	if t == TypeNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts null or one of the known category strings.
func (t *Type) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = TypeNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Type(s) {
	case TypeNone, TypeSmall, TypeMedium, TypeLarge:
		*t = Type(s)
		return nil
	default:
		return fmt.Errorf("unknown tournament type %q", s)
	}
}

// TypeFor maps a target count onto its category.
func TypeFor(targetCount int) Type {
	switch {
	case targetCount >= MinTargets && targetCount <= smallMaxTargets:
		return TypeSmall
	case targetCount > smallMaxTargets && targetCount <= mediumMaxTargets:
		return TypeMedium
	case targetCount > mediumMaxTargets:
		return TypeLarge
	default:
		return TypeNone
	}
}

// Config is the shape of a tournament. TotalShots and Type are derived from
// TargetCount and ShotsPerTarget; build values with NewConfig so they stay
// in sync.
type Config struct {
	TargetCount    int  `json:"targetCount"`
	ShotsPerTarget int  `json:"shotsPerTarget"`
	TotalShots     int  `json:"totalShots"`
	Type           Type `json:"tournamentType"`
}

// NewConfig returns the config for the given shape with derived fields filled in.
func NewConfig(targetCount, shotsPerTarget int) Config {
	return Config{
		TargetCount:    targetCount,
		ShotsPerTarget: shotsPerTarget,
		TotalShots:     targetCount * shotsPerTarget,
		Type:           TypeFor(targetCount),
	}
}

// Normalize recomputes the derived fields from the shape.
func (c Config) Normalize() Config {
	return NewConfig(c.TargetCount, c.ShotsPerTarget)
}

// UnmarshalJSON decodes the shape and re-derives TotalShots and Type, so a
// stale or hand-edited category never survives a round trip.
func (c *Config) UnmarshalJSON(data []byte) error {
	type wire struct {
		TargetCount    int `json:"targetCount"`
		ShotsPerTarget int `json:"shotsPerTarget"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = NewConfig(w.TargetCount, w.ShotsPerTarget)
	return nil
}

// String renders the compact "20T × 2S" label used in listings.
func (c Config) String() string {
	return fmt.Sprintf("%dT × %dS", c.TargetCount, c.ShotsPerTarget)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first problem with cfg, checking target count, then
// shots per target, then the participant selection.
func Validate(cfg Config, selectedCount int) error {
	if errs := Check(cfg, selectedCount); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Check runs every validation independently and returns all failures in
// target -> shots -> participants order.
func Check(cfg Config, selectedCount int) []error {
	var errs []error
	if validate.Var(cfg.TargetCount, fmt.Sprintf("min=%d,max=%d", MinTargets, MaxTargets)) != nil {
		errs = append(errs, ErrInvalidTargetCount)
	}
	if validate.Var(cfg.ShotsPerTarget, fmt.Sprintf("min=%d,max=%d", MinShotsPerTarget, MaxShotsPerTarget)) != nil {
		errs = append(errs, ErrInvalidShotsPerTarget)
	}
	if selectedCount <= 0 {
		errs = append(errs, ErrNoParticipantsSelected)
	}
	return errs
}

// Clamp bounds a requested shape to the accepted ranges.
func Clamp(targetCount, shotsPerTarget int) (int, int) {
	return clamp(targetCount, MinTargets, MaxTargets), clamp(shotsPerTarget, MinShotsPerTarget, MaxShotsPerTarget)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
