package execution

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	printlnCall   = regexp.MustCompile(`(?i)System\.out\.println\s*\(\s*"([^"]+)"\s*\)`)
	coutStatement = regexp.MustCompile(`(?i)cout\s*<<\s*"([^"]+)"`)
	stringLiteral = regexp.MustCompile(`"([^"]+)"`)
	decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// simulateOutput picks the first keyword category that applies to code and
// synthesizes its output. An error is a runtime failure for this input.
func simulateOutput(code, input string) (string, error) {
	lower := strings.ToLower(code)
	trimmed := strings.TrimSpace(input)
	lines := strings.Split(input, "\n")

	if strings.Contains(lower, "system.out.println") || strings.Contains(lower, "cout") {
		if printed := printedLiterals(code); len(printed) > 0 {
			return strings.Join(printed, "\n"), nil
		}
		if strings.Contains(lower, "hello") || strings.Contains(lower, "world") {
			return "Hello World", nil
		}
	}

	if (strings.Contains(lower, "scanner") || strings.Contains(lower, "cin")) && trimmed != "" {
		return strings.Join(strings.Split(trimmed, "\n"), " "), nil
	}

	if strings.Contains(lower, "max") {
		return salesReport(lines)
	}

	if strings.Contains(lower, "sort") || strings.Contains(lower, "selection") {
		values, err := numbersOnLine(lines, 1)
		if err != nil {
			return "", err
		}
		slices.SortFunc(values, func(a, b float64) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			}
			return 0
		})
		return joinNumbers(values), nil
	}

	if strings.Contains(lower, "rotate") || strings.Contains(lower, "array") {
		return rotateLeft(lines)
	}

	if (strings.Contains(lower, "sum") || strings.Contains(lower, "+")) && trimmed != "" {
		if total, ok := sumNumbers(trimmed); ok {
			return formatNumber(total), nil
		}
	}

	if (strings.Contains(lower, "for") || strings.Contains(lower, "while")) && trimmed != "" {
		if n, ok := leadingInt(strings.Fields(trimmed)[0]); ok && n > 0 && n <= 100 {
			seq := make([]string, n)
			for i := range seq {
				seq[i] = strconv.Itoa(i + 1)
			}
			return strings.Join(seq, " "), nil
		}
	}

	if literals := stringLiteral.FindAllStringSubmatch(code, -1); len(literals) > 0 {
		out := make([]string, len(literals))
		for i, m := range literals {
			out[i] = m[1]
		}
		return strings.Join(out, "\n"), nil
	}

	if trimmed != "" {
		return "Processed: " + trimmed, nil
	}
	return "Program executed successfully", nil
}

// printedLiterals returns the string literals passed to println calls, or
// failing that, to cout insertions.
func printedLiterals(code string) []string {
	matches := printlnCall.FindAllStringSubmatch(code, -1)
	if len(matches) == 0 {
		matches = coutStatement.FindAllStringSubmatch(code, -1)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func salesReport(lines []string) (string, error) {
	sales, err := numbersOnLine(lines, 1)
	if err != nil {
		return "", err
	}

	maxIdx, minIdx := 0, 0
	var sum float64
	for i, v := range sales {
		if v > sales[maxIdx] {
			maxIdx = i
		}
		if v < sales[minIdx] {
			minIdx = i
		}
		sum += v
	}
	avg := math.Floor(sum / float64(len(sales)))

	return fmt.Sprintf("Maximum sales: %s on day %d\nMinimum sales: %s on day %d\nAverage sales: %s",
		formatNumber(sales[maxIdx]), maxIdx+1,
		formatNumber(sales[minIdx]), minIdx+1,
		formatNumber(avg)), nil
}

func rotateLeft(lines []string) (string, error) {
	values, err := numbersOnLine(lines, 1)
	if err != nil {
		return "", err
	}

	k := 0
	if header := strings.Fields(lines[0]); len(header) > 1 {
		if v, err := strconv.Atoi(header[1]); err == nil {
			k = v
		}
	}
	n := len(values)
	if k < 0 {
		k += n
	}
	k = min(max(k, 0), n)

	rotated := append(slices.Clone(values[k:]), values[:k]...)
	return joinNumbers(rotated), nil
}

// numbersOnLine parses the whitespace-separated numbers on lines[idx].
func numbersOnLine(lines []string, idx int) ([]float64, error) {
	if idx >= len(lines) {
		return nil, fmt.Errorf("invalid input: missing line %d", idx+1)
	}
	fields := strings.Fields(lines[idx])
	if len(fields) == 0 {
		return nil, errors.New("invalid input: no numbers on line " + strconv.Itoa(idx+1))
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, ok := parseNumber(f)
		if !ok {
			return nil, fmt.Errorf("invalid input: %q is not a number", f)
		}
		values[i] = v
	}
	return values, nil
}

// sumNumbers adds every token that parses as a number and ignores the rest.
func sumNumbers(s string) (float64, bool) {
	var total float64
	found := false
	for _, f := range strings.Fields(s) {
		v, ok := parseNumber(f)
		if !ok {
			continue
		}
		total += v
		found = true
	}
	return total, found
}

// parseNumber accepts the numeric token forms a browser's Number() does:
// signed decimals with optional exponent, the exact words Infinity and
// -Infinity, and unsigned 0x, 0o and 0b integers. Anything else, "inf" and
// "nan" included, is rejected.
func parseNumber(tok string) (float64, bool) {
	switch tok {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(tok) > 2 && tok[0] == '0' {
		base := 0
		switch tok[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadixInt(tok[2:], base)
		}
	}
	if !decimalNumber.MatchString(tok) {
		return 0, false
	}
	// Overflow yields ±Inf, as it does in the browser.
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

func parseRadixInt(digits string, base int) (float64, bool) {
	var v float64
	for _, c := range strings.ToLower(digits) {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		default:
			return 0, false
		}
		if d >= base {
			return 0, false
		}
		v = v*float64(base) + float64(d)
	}
	return v, true
}

// leadingInt parses an optional sign and the digits that follow, ignoring
// any trailing characters ("12abc" is 12).
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func joinNumbers(values []float64) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatNumber(v)
	}
	return strings.Join(out, " ")
}

func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
