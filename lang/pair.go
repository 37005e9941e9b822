package lang

import "fmt"

// Pair is the current source/target assignment.
type Pair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Swap exchanges source and target. Swapping twice yields the original pair.
func (p Pair) Swap() Pair {
	return Pair{Source: p.Target, Target: p.Source}
}

// Validate checks both codes.
func (p Pair) Validate() error {
	if err := Validate(p.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := Validate(p.Target); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	return nil
}

func (p Pair) String() string {
	return p.Source + "->" + p.Target
}
