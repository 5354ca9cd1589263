package bridge

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/bifrost/pkg/domain"
)

// Sentinel marks an evaluation error in a device reply.
const Sentinel = "nan"

var (
	sentinelPattern = regexp.MustCompile(`(?i)` + Sentinel)
	decimalPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// NormalizeResponse classifies a raw device reply.
// Replies containing the sentinel fail with domain.ErrSyntax; decimal replies are
// formatted with zero (integers) or six decimals; anything else passes through trimmed.
func NormalizeResponse(raw string) (domain.NormalizedValue, error) {
	if strings.Contains(strings.ToLower(raw), Sentinel) {
		detail := strings.TrimSpace(sentinelPattern.ReplaceAllString(raw, ""))
		return domain.NormalizedValue{}, domain.NewEvalError(domain.ErrSyntax, detail, nil)
	}

	text := strings.TrimSpace(raw)
	if !decimalPattern.MatchString(text) {
		return domain.NormalizedValue{Text: text}, nil
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return domain.NormalizedValue{Text: text}, nil
	}
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return domain.NormalizedValue{
		Text:    FormatValue(v),
		Value:   v,
		Numeric: true,
	}, nil
}

// FormatValue applies the decimal policy: integers get no decimals, anything else six.
func FormatValue(v float64) string {
	if v == math.Floor(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
