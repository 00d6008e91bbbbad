package llm

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// FieldKind is the semantic hint attached to an expected field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindMoney
	KindIdentity
)

func (k FieldKind) String() string {
	switch k {
	case KindMoney:
		return "money"
	case KindIdentity:
		return "identity"
	default:
		return "text"
	}
}

var moneyNameParts = []string{"wage", "tax", "income", "amount", "dividend", "interest", "compensation"}

// IsMoneyField reports whether a field name looks monetary (case-insensitive substring match).
func IsMoneyField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, part := range moneyNameParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// Normalize cleans a single extracted value. Monetary values keep only digits and
// the first decimal point; everything else is trimmed. It never fails: missing or
// non-numeric money yields "".
func Normalize(fieldName, raw string, hint FieldKind) string {
	if hint == KindMoney || IsMoneyField(fieldName) {
		return cleanMoney(raw)
	}
	return strings.TrimSpace(raw)
}

func cleanMoney(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	seenDot := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeFields runs Normalize over every field the model returned and
// backfills each expected field that was missing with "".
func NormalizeFields(prompt Prompt, data map[string]any, logger *slog.Logger) map[string]string {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(map[string]string, len(data)+len(prompt.ExpectedFields))
	var coerced []string
	for name, v := range data {
		s, changed := stringify(v)
		if changed {
			coerced = append(coerced, name)
		}
		out[name] = Normalize(name, s, prompt.KindOf(name))
	}
	var missing []string
	for _, f := range prompt.ExpectedFields {
		if _, ok := out[f.Name]; !ok {
			out[f.Name] = ""
			missing = append(missing, f.Name)
		}
	}
	if len(coerced) > 0 || len(missing) > 0 {
		logger.Debug("llm.extract.normalize", "category", prompt.Category, "coerced", coerced, "missing", missing)
	}
	return out
}

// stringify converts a decoded JSON value to its string form; changed is true
// when the value was not already a string.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, false
	case nil:
		return "", true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", true
		}
		return string(b), true
	}
}
