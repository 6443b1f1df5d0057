package delegator

import (
	"fmt"

	"revshare/pkg/errors"
)

// Strategy names one of the three private-price signals a delegator can weight
type Strategy int

const (
	StrategyMeanReversion Strategy = 1
	StrategyFundamental   Strategy = 2
	StrategyTrend         Strategy = 3
)

// strategyCount is the length of every weight vector
const strategyCount = 3

// Valid checks if strategy is one of the known signals
func (s Strategy) Valid() bool {
	return s >= StrategyMeanReversion && s <= StrategyTrend
}

// Index returns the weight-vector position of the strategy
func (s Strategy) Index() int {
	return int(s) - 1
}

// String returns string representation
func (s Strategy) String() string {
	switch s {
	case StrategyMeanReversion:
		return "mean_reversion"
	case StrategyFundamental:
		return "fundamental"
	case StrategyTrend:
		return "trend"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

type typeKind uint8

const (
	kindUnset typeKind = iota
	kindMixed
	kindPure
)

// Type is the delegator's weighting policy: Mixed or Pure(strategy).
// The zero value is unset and is resolved when a delegator is constructed.
type Type struct {
	kind     typeKind
	strategy Strategy
}

// Mixed returns the type whose weights are sampled at random
func Mixed() Type {
	return Type{kind: kindMixed}
}

// Pure returns the type that weights a single strategy exclusively
func Pure(s Strategy) Type {
	return Type{kind: kindPure, strategy: s}
}

// IsUnset reports whether the type still needs resolving
func (t Type) IsUnset() bool {
	return t.kind == kindUnset
}

// IsMixed reports whether the type samples random weights
func (t Type) IsMixed() bool {
	return t.kind == kindMixed
}

// Strategy returns the pure strategy and true, or zero and false for
// mixed and unset types
func (t Type) Strategy() (Strategy, bool) {
	if t.kind != kindPure {
		return 0, false
	}
	return t.strategy, true
}

// Code returns the numeric category used in reports: 0 for mixed,
// 1..3 for pure strategies, -1 when unset
func (t Type) Code() int {
	switch t.kind {
	case kindMixed:
		return 0
	case kindPure:
		return int(t.strategy)
	}
	return -1
}

// String returns string representation
func (t Type) String() string {
	switch t.kind {
	case kindMixed:
		return "mixed"
	case kindPure:
		return t.strategy.String()
	}
	return "unset"
}

// TypeFromCode parses a report code back into a Type
func TypeFromCode(code int) (Type, error) {
	if code == 0 {
		return Mixed(), nil
	}
	s := Strategy(code)
	if !s.Valid() {
		return Type{}, errors.Wrapf(errors.ErrInvalidInput, "unknown delegator type code %d", code)
	}
	return Pure(s), nil
}

// resolveType rotates unset types through the pure strategies by id
func resolveType(t Type, id int64) Type {
	if !t.IsUnset() {
		return t
	}
	rotated := ((id % strategyCount) + strategyCount) % strategyCount
	return Pure(Strategy(rotated + 1))
}
