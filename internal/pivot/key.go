package pivot

import (
	"fmt"
	"strconv"
	"strings"
)

// KeySep joins dimension items into a row, column or body key.
// A control character keeps it out of any item's printable form.
const KeySep = "\x01-"

// ScalarKey is the body key of a table without dimensions.
const ScalarKey = "SCALAR_KEY"

// ItemsToKey makes a key as join of dimension items
func ItemsToKey(items []string) string {
	return strings.Join(items, KeySep)
}

// KeyToItems splits a key back into dimension items.
func KeyToItems(key string) []string {
	if key == "" {
		return []string{}
	}
	return strings.Split(key, KeySep)
}

// TupleKey encodes a tuple of enum values
func TupleKey(t Tuple) string {
	items := make([]string, len(t))
	for k, v := range t {
		items[k] = ItemString(v)
	}
	return ItemsToKey(items)
}

// ItemString returns the string form of an enum value as it appears inside keys.
func ItemString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
