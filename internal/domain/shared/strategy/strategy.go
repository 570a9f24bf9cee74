// Package strategy defines the pluggable pricing and allocation policies of
// the analysis pipeline.
package strategy

import (
	"fmt"
	"strings"

	"github.com/catalogrecon/backend/internal/domain/shared"
)

// StrategyType is the pipeline step a strategy plugs into
type StrategyType string

const (
	// StrategyTypePricing selects the sale price used for profit math
	StrategyTypePricing StrategyType = "pricing"
	// StrategyTypeAllocation spreads a budget over profitable records
	StrategyTypeAllocation StrategyType = "allocation"
)

func (t StrategyType) String() string {
	return string(t)
}

// IsValid reports whether t is a known strategy type
func (t StrategyType) IsValid() bool {
	return t == StrategyTypePricing || t == StrategyTypeAllocation
}

// AllStrategyTypes returns the known types in pipeline order
func AllStrategyTypes() []StrategyType {
	return []StrategyType{StrategyTypePricing, StrategyTypeAllocation}
}

// ParseStrategyType accepts a type name in any case
func ParseStrategyType(s string) (StrategyType, error) {
	t := StrategyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown strategy type %q", shared.ErrInvalidInput, s)
	}
	return t, nil
}

// Strategy is implemented by every pricing and allocation policy
type Strategy interface {
	Name() string
	Type() StrategyType
	Description() string
}

// Info describes a registered strategy for listings
type Info struct {
	Name        string       `json:"name"`
	Type        StrategyType `json:"type"`
	Description string       `json:"description"`
	Default     bool         `json:"default"`
}

// InfoOf snapshots the identity of s
func InfoOf(s Strategy, isDefault bool) Info {
	return Info{
		Name:        s.Name(),
		Type:        s.Type(),
		Description: s.Description(),
		Default:     isDefault,
	}
}

// BaseStrategy is embedded by concrete strategies to supply their identity
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
}

// NewBaseStrategy creates a new BaseStrategy
func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{
		name:         name,
		strategyType: strategyType,
		description:  description,
	}
}

func (s BaseStrategy) Name() string        { return s.name }
func (s BaseStrategy) Type() StrategyType  { return s.strategyType }
func (s BaseStrategy) Description() string { return s.description }
