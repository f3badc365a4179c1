package domain

import (
	"fmt"
	"strconv"
)

// ArrangeBy groups the JSON objects in items by their value for key.
// Entries that are not objects, or lack key, are skipped. Group names are
// the value's string form, so 1 and "1" share a group.
func ArrangeBy(key string, items []any) map[string][]map[string]any {
	groups := make(map[string][]map[string]any)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value, ok := obj[key]
		if !ok {
			continue
		}
		name := groupName(value)
		groups[name] = append(groups[name], obj)
	}
	return groups
}

func groupName(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(v)
	}
}
