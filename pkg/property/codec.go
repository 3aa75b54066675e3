// Package property converts property values between their Go runtime form
// and the text form they travel in on the wire.
//
// Runtime forms by kind:
//
//	string, id, uri, html  string
//	boolean                bool
//	integer                *big.Int (any Go integer is accepted on input)
//	decimal                decimal.Decimal (*big.Float and floats accepted on input)
//	datetime               time.Time
//
// Multi-valued properties are carried as []any.
package property

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aretw0/facet/pkg/core"
)

// DateTimeLayout is the XML dateTime form used for datetime values.
// Values with sub-millisecond precision are written with all fraction
// digits instead (time.RFC3339Nano).
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// parseLayouts are tried in order when reading datetime text.
var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Check validates value against def and returns it normalized to the
// runtime form of the kind, as a list.
//
// A nil value is allowed and yields a nil list: updates use it to clear a
// property. A slice requires a multi-valued definition and a scalar requires
// a single-valued one. Lists must not contain nil.
func Check(def *core.PropertyDefinition, value any) ([]any, error) {
	if def == nil {
		return nil, core.Invalid("missing property definition")
	}
	if value == nil {
		return nil, nil
	}

	items, isList := asList(value)
	if isList && !def.IsMulti() {
		return nil, core.InvalidProperty(def.ID, "property is single-valued but a list was supplied")
	}
	if !isList {
		if def.IsMulti() {
			return nil, core.InvalidProperty(def.ID, "property is multi-valued but a single value was supplied")
		}
		items = []any{value}
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, core.InvalidProperty(def.ID, "list contains a nil value at index %d", i)
		}
		v, err := normalize(def.Kind, item)
		if err != nil {
			return nil, &core.ValidationError{PropertyID: def.ID, Value: fmt.Sprint(item), Reason: err.Error()}
		}
		out = append(out, v)
	}
	return out, nil
}

// Format renders a single runtime value as wire text.
func Format(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return formatDateTime(v), nil
	case *time.Time:
		if v == nil {
			break
		}
		return formatDateTime(*v), nil
	case *big.Int:
		if v == nil {
			break
		}
		return v.String(), nil
	case big.Int:
		return v.String(), nil
	case *big.Float:
		if v == nil {
			break
		}
		return v.Text('f', -1), nil
	case decimal.Decimal:
		return v.String(), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("%w: unsupported value type %T", core.ErrValidation, value)
}

func formatDateTime(t time.Time) string {
	if t.Nanosecond()%int(time.Millisecond) != 0 {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(DateTimeLayout)
}

// Encode checks value against def and formats every item.
// A nil value encodes to no text at all.
func Encode(def *core.PropertyDefinition, value any) ([]string, error) {
	items, err := Check(def, value)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		text, err := Format(item)
		if err != nil {
			return nil, &core.ValidationError{PropertyID: def.ID, Reason: err.Error()}
		}
		out = append(out, text)
	}
	return out, nil
}

// Parse reads a single wire text according to the kind of def.
func Parse(def *core.PropertyDefinition, text string) (any, error) {
	if def == nil {
		return nil, core.Invalid("missing property definition")
	}
	bad := func(reason string) error {
		return &core.ValidationError{PropertyID: def.ID, Value: text, Reason: reason}
	}

	switch def.Kind {
	case core.KindBoolean:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, bad("not a boolean")
	case core.KindDateTime:
		t, err := ParseDateTime(text)
		if err != nil {
			return nil, bad("not a datetime")
		}
		return t, nil
	case core.KindDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return nil, bad("not a decimal")
		}
		return d, nil
	case core.KindInteger:
		n, ok := new(big.Int).SetString(strings.TrimSpace(text), 10)
		if !ok {
			return nil, bad("not an integer")
		}
		return n, nil
	default:
		return text, nil
	}
}

// Decode parses every text of a property. The result holds runtime values in
// wire order.
func Decode(def *core.PropertyDefinition, texts []string) ([]any, error) {
	out := make([]any, 0, len(texts))
	for _, text := range texts {
		v, err := Parse(def, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Value shapes a decoded list to the cardinality of def: a scalar (or nil)
// for single-valued properties and the list itself otherwise.
func Value(def *core.PropertyDefinition, items []any) any {
	if def != nil && def.IsMulti() {
		if items == nil {
			return []any{}
		}
		return items
	}
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// ParseDateTime accepts XML dateTime and RFC 3339 text with or without zone
// and fractional seconds. Text without a zone is read as UTC.
func ParseDateTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	var lastErr error
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Equal compares two runtime values by kind-aware equality. Integers compare
// numerically regardless of Go type, decimals by value, times by instant and
// lists element-wise.
func Equal(a, b any) bool {
	la, aList := asList(a)
	lb, bList := asList(b)
	if aList || bList {
		if !aList || !bList || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}

	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ia, ok := toBigInt(a); ok {
		ib, ok := toBigInt(b)
		return ok && ia.Cmp(ib) == 0
	}
	if da, ok := toDecimal(a); ok {
		db, ok := toDecimal(b)
		return ok && da.Equal(db)
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

func normalize(kind core.PropertyKind, v any) (any, error) {
	switch kind {
	case core.KindString, core.KindID, core.KindURI, core.KindHTML:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected a string, got %T", v)
	case core.KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected a boolean, got %T", v)
	case core.KindInteger:
		if n, ok := toBigInt(v); ok {
			return n, nil
		}
		return nil, fmt.Errorf("expected an integer, got %T", v)
	case core.KindDecimal:
		if d, ok := toDecimal(v); ok {
			return d, nil
		}
		return nil, fmt.Errorf("expected a decimal, got %T", v)
	case core.KindDateTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case *time.Time:
			if t != nil {
				return *t, nil
			}
		}
		return nil, fmt.Errorf("expected a time, got %T", v)
	}
	return nil, fmt.Errorf("unknown property kind %q", kind)
}

func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	case big.Int:
		return new(big.Int).Set(&n), true
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	}
	return nil, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case *big.Float:
		if d == nil {
			return decimal.Decimal{}, false
		}
		out, err := decimal.NewFromString(d.Text('f', -1))
		return out, err == nil
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(d), true
	case float32:
		f := float64(d)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(d), true
	}
	return decimal.Decimal{}, false
}

// asList reports whether v is a list and returns its items. Strings and
// byte slices are scalars.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
