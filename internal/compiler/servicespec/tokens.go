package servicespec

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/TaffyWrinkle/jacdac/internal/iter"
)

var punctuation = strings.NewReplacer(
	"?", " ? ",
	"@", " @ ",
	":", " : ",
	"=", " = ",
	",", " , ",
	"{", " { ",
	"}", " } ",
	";", " ; ",
)

// tokenize strips a trailing comment, splits punctuation into standalone
// tokens and drops one trailing separator.
func tokenize(line string) []string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	words := strings.Fields(punctuation.Replace(line))
	if n := len(words); n > 0 && isSeparator(words[n-1]) {
		words = words[:n-1]
	}
	return words
}

func isSeparator(w string) bool {
	return w == ";" || w == ","
}

func isAssign(w string) bool {
	return w == ":" || w == "="
}

// dispatchKey selects the statement handler: the first word, or ":" when
// the second word assigns.
func dispatchKey(words []string) string {
	if len(words) > 1 && isAssign(words[1]) {
		return ":"
	}
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// words is a consumable token list.
type words []string

func (w *words) shift() string {
	if len(*w) == 0 {
		return ""
	}
	v := (*w)[0]
	*w = (*w)[1:]
	return v
}

func (w *words) unshift(v string) {
	*w = append(words{v}, *w...)
}

func (w words) peek() string {
	return w.at(0)
}

func (w words) at(i int) string {
	if i < 0 || i >= len(w) {
		return ""
	}
	return w[i]
}

func (w words) index(v string) int {
	for i, x := range w {
		if x == v {
			return i
		}
	}
	return -1
}

func (w *words) remove(i int, n int) {
	end := i + n
	if end > len(*w) {
		end = len(*w)
	}
	*w = append((*w)[:i:i], (*w)[end:]...)
}

func (w words) String() string {
	return strings.Join(w, " ")
}

// splitStatements breaks the tokens of an inline block body into member
// statements. A statement ends at a separator or where the next token
// starts a new member: a token followed by ':' or '=' once the current
// statement is complete.
func splitStatements(ctx context.Context, body []string, complete func([]string) bool) [][]string {
	var out [][]string
	var current []string
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}
	tokens := iter.NewLookahead[string](iter.NewSlice(body), 1)
	defer tokens.Close(ctx)
	for tok := tokens.Next(ctx); tok.IsPresent(); tok = tokens.Next(ctx) {
		v := tok.Value()
		if isSeparator(v) {
			flush()
			continue
		}
		next := tokens.Lookahead(ctx, 1)
		if next.IsPresent() && isAssign(next.Value()) && complete(current) {
			flush()
		}
		current = append(current, v)
	}
	flush()
	return out
}

func fieldComplete(stmt []string) bool {
	for _, w := range stmt {
		if w == ":" {
			return true
		}
	}
	return false
}

func memberComplete(stmt []string) bool {
	for _, w := range stmt {
		if w == "=" {
			return true
		}
	}
	return false
}

var namePattern = regexp.MustCompile(`^\w+$`)

func isName(w string) bool {
	return namePattern.MatchString(w)
}

var (
	errNotInteger = errors.New("not an integer literal")
	errIntRange   = errors.New("integer literal out of range")
)

// parseIntLiteral accepts 0x hex and decimal integers with an optional sign.
// Underscores may separate digits. Literals outside int64 yield errIntRange.
func parseIntLiteral(w string) (int64, error) {
	s := strings.ReplaceAll(w, "_", "")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, errNotInteger
	}
	v, err := strconv.ParseUint(s, base, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, errIntRange
	case err != nil:
		return 0, errNotInteger
	}
	if neg {
		if v > 1<<63 {
			return 0, errIntRange
		}
		return -int64(v), nil
	}
	if v > math.MaxInt64 {
		return 0, errIntRange
	}
	return int64(v), nil
}
