package domain

import (
	"fmt"
	"strings"
)

// TokenClass determines the insertion policy of a token.
type TokenClass int

const (
	ClassDigit TokenClass = iota
	ClassOperator
	ClassFunction
	ClassConstant
	ClassRecall
	ClassLiteral
)

func (c TokenClass) String() string {
	switch c {
	case ClassDigit:
		return "digit"
	case ClassOperator:
		return "operator"
	case ClassFunction:
		return "function"
	case ClassConstant:
		return "constant"
	case ClassRecall:
		return "recall"
	case ClassLiteral:
		return "literal"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// TokenID identifies a key of the calculator keypad.
type TokenID int

const (
	TokenZero TokenID = iota
	TokenOne
	TokenTwo
	TokenThree
	TokenFour
	TokenFive
	TokenSix
	TokenSeven
	TokenEight
	TokenNine
	TokenDot
	TokenParens
	TokenAdd
	TokenSubtract
	TokenMultiply
	TokenDivide
	TokenModulus
	TokenPow
	TokenSin
	TokenCos
	TokenTan
	TokenLog
	TokenLn
	TokenSqrt
	TokenPi
	TokenAns
)

// PiLiteral is the text inserted for the pi key.
const PiLiteral = "3.141593"

// Operators is the closed set of binary operators understood by the device.
var Operators = []string{"+", "-", "/", "*", "%", "^"}

// Functions is the closed set of functions understood by the device.
var Functions = []string{"sin", "cos", "tan", "log", "ln", "sqrt", "pow"}

// Token describes a keypad key: its label, class and the text it inserts
// before any resolution rule is applied.
type Token struct {
	ID    TokenID
	Label string
	Class TokenClass
	Text  string
}

var tokens = []Token{
	{TokenZero, "0", ClassDigit, "0"},
	{TokenOne, "1", ClassDigit, "1"},
	{TokenTwo, "2", ClassDigit, "2"},
	{TokenThree, "3", ClassDigit, "3"},
	{TokenFour, "4", ClassDigit, "4"},
	{TokenFive, "5", ClassDigit, "5"},
	{TokenSix, "6", ClassDigit, "6"},
	{TokenSeven, "7", ClassDigit, "7"},
	{TokenEight, "8", ClassDigit, "8"},
	{TokenNine, "9", ClassDigit, "9"},
	{TokenDot, ".", ClassLiteral, "."},
	{TokenParens, "()", ClassLiteral, "()"},
	{TokenAdd, "+", ClassOperator, "+"},
	{TokenSubtract, "-", ClassOperator, "-"},
	{TokenMultiply, "*", ClassOperator, "*"},
	{TokenDivide, "/", ClassOperator, "/"},
	{TokenModulus, "%", ClassOperator, "%"},
	{TokenPow, "x^y", ClassOperator, "^"},
	{TokenSin, "SIN", ClassFunction, "sin"},
	{TokenCos, "COS", ClassFunction, "cos"},
	{TokenTan, "TAN", ClassFunction, "tan"},
	{TokenLog, "LOG", ClassFunction, "log"},
	{TokenLn, "LN", ClassFunction, "ln"},
	{TokenSqrt, "√", ClassFunction, "sqrt"},
	{TokenPi, "π", ClassConstant, PiLiteral},
	{TokenAns, "ANS", ClassRecall, ""},
}

// aliases maps user-facing spellings to token IDs (lower-case keys).
var aliases = map[string]TokenID{
	"pow":  TokenPow,
	"^":    TokenPow,
	"sqrt": TokenSqrt,
	"pi":   TokenPi,
	"(":    TokenParens,
	"()":   TokenParens,
}

// Tokens returns the full keypad in declaration order.
func Tokens() []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out
}

// Lookup returns the token for id.
func Lookup(id TokenID) (Token, bool) {
	if id < 0 || int(id) >= len(tokens) {
		return Token{}, false
	}
	return tokens[id], true
}

// ParseToken resolves a key label or alias ("7", "+", "sin", "x^y", "pi", "ans") to a TokenID.
func ParseToken(s string) (TokenID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	for _, t := range tokens {
		if strings.ToLower(t.Label) == key {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownToken, s)
}

func (id TokenID) String() string {
	if t, ok := Lookup(id); ok {
		return t.Label
	}
	return fmt.Sprintf("token(%d)", int(id))
}

// IsOperator reports whether s (case-insensitively) is a member of Operators.
func IsOperator(s string) bool {
	return contains(Operators, strings.ToLower(s))
}

// IsFunction reports whether s (case-insensitively) is a member of Functions.
func IsFunction(s string) bool {
	return contains(Functions, strings.ToLower(s))
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
