// Package gconfig holds the declarative game configuration record embedded
// in a generated launcher and the four-valued feature state algebra every
// optional capability is expressed through.
package gconfig

import (
	"encoding/json"
	"fmt"
)

// FeatureState is the four-valued on/off by mandatory/optional algebra that
// governs every optional capability in a GameConfig.
type FeatureState string

const (
	MandatoryOn  FeatureState = "MandatoryOn"
	MandatoryOff FeatureState = "MandatoryOff"
	OptionalOn   FeatureState = "OptionalOn"
	OptionalOff  FeatureState = "OptionalOff"
)

// Enabled reports whether the feature is active under its current policy,
// ignoring any override.
func (s FeatureState) Enabled() bool {
	return s == MandatoryOn || s == OptionalOn
}

// Mandatory reports whether the state is fixed and cannot be overridden.
func (s FeatureState) Mandatory() bool {
	return s == MandatoryOn || s == MandatoryOff
}

// Overridable reports whether a user override may flip this feature.
func (s FeatureState) Overridable() bool {
	return s == OptionalOn || s == OptionalOff
}

func (s FeatureState) valid() bool {
	switch s {
	case MandatoryOn, MandatoryOff, OptionalOn, OptionalOff:
		return true
	default:
		return false
	}
}

// UnmarshalJSON accepts a bare FeatureState string, or a JSON boolean, the
// latter canonicalized to OptionalOn/OptionalOff. This is the
// prime_offload compatibility path: the field has historically round
// tripped as a plain bool in some tooling.
func (s *FeatureState) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		if asBool {
			*s = OptionalOn
		} else {
			*s = OptionalOff
		}
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("gconfig: feature state must be a bool or string: %w", err)
	}

	candidate := FeatureState(asString)
	if !candidate.valid() {
		return fmt.Errorf("gconfig: unknown feature state %q", asString)
	}
	*s = candidate
	return nil
}

// EffectiveEnabled resolves a feature's enabled state against an optional
// user override. The override is honored only when the policy state is
// overridable; a MandatoryOff feature can never be enabled this way.
func EffectiveEnabled(state FeatureState, override *bool) bool {
	if state.Overridable() && override != nil {
		return *override
	}
	return state.Enabled()
}

// ApplyOverride returns the FeatureState that results from applying a
// boolean override to the current state. Non-overridable states are
// returned unchanged.
func ApplyOverride(state FeatureState, override bool) FeatureState {
	if !state.Overridable() {
		return state
	}
	if override {
		return OptionalOn
	}
	return OptionalOff
}
