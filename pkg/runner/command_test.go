package runner

import (
	"testing"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CommandState}},
		{"=", Command{Kind: CommandEvaluate}},
		{"EVAL", Command{Kind: CommandEvaluate}},
		{"<", Command{Kind: CommandDelete}},
		{"clear", Command{Kind: CommandClear}},
		{"reset", Command{Kind: CommandReset}},
		{"caret 3", Command{Kind: CommandCaret, Args: []int{3}}},
		{"select 1 2", Command{Kind: CommandSelect, Args: []int{1, 2}}},
		{"hist 0", Command{Kind: CommandHistory, Args: []int{0}}},
		{"quit", Command{Kind: CommandQuit}},
		{"7", Command{Kind: CommandInsert, Tokens: []domain.TokenID{domain.TokenSeven}}},
		{"12.5 + sin", Command{Kind: CommandInsert, Tokens: []domain.TokenID{
			domain.TokenOne, domain.TokenTwo, domain.TokenDot, domain.TokenFive, domain.TokenAdd, domain.TokenSin,
		}}},
		{"/ 2 =", Command{Kind: CommandInsert, Evaluate: true, Tokens: []domain.TokenID{domain.TokenDivide, domain.TokenTwo}}},
		{"x^y pi ans ()", Command{Kind: CommandInsert, Tokens: []domain.TokenID{
			domain.TokenPow, domain.TokenPi, domain.TokenAns, domain.TokenParens,
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	_, err := ParseCommand("caret")
	assert.ErrorIs(t, err, ErrBadArguments)

	_, err = ParseCommand("caret x")
	assert.ErrorIs(t, err, ErrBadArguments)

	_, err = ParseCommand("select 1")
	assert.ErrorIs(t, err, ErrBadArguments)

	_, err = ParseCommand("1 + cosh")
	assert.ErrorIs(t, err, domain.ErrUnknownToken)

	_, err = ParseCommand("clear 2")
	assert.ErrorIs(t, err, domain.ErrUnknownToken, "keywords without arguments are not insert labels")
}
