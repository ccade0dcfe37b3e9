package docparse

import (
	"math"
	"strings"
)

// Cost tracks token usage across model invocations. Values add
// component-wise; the zero value is the identity, so costs can be
// accumulated from any order of page completions.
type Cost struct {
	InputTokens  int `json:"input_token"`
	OutputTokens int `json:"output_token"`
}

// ZeroCost returns the additive identity.
func ZeroCost() Cost { return Cost{} }

// Add returns the component-wise sum of c and other.
func (c Cost) Add(other Cost) Cost {
	return Cost{
		InputTokens:  c.InputTokens + other.InputTokens,
		OutputTokens: c.OutputTokens + other.OutputTokens,
	}
}

// EstimateTokens approximates the token count of text as 1.3 tokens per
// whitespace-separated word, rounded. Used only when a provider does not
// report exact usage; this is a rough figure, not billing-grade.
func EstimateTokens(text string) int {
	return int(math.Round(float64(len(strings.Fields(text))) * 1.3))
}
