package processor

import (
	"fmt"
	"strconv"
	"strings"

	"gong-export-go/internal/types"
)

const objectIDField = "objectid"

// FieldValues scans the CRM context for a field. Names and the optional
// object type compare case-insensitively; the field name "objectId" reads the
// object's id. Values come back in traversal order, empty ones skipped.
func FieldValues(context []types.ContextObject, fieldName, objectType string) []string {
	var values []string
	for _, ctx := range context {
		for _, obj := range ctx.Objects {
			if objectType != "" && !strings.EqualFold(obj.ObjectType, objectType) {
				continue
			}
			if strings.ToLower(fieldName) == objectIDField {
				if v := stringValue(obj.ObjectID); v != "" {
					values = append(values, v)
				}
				continue
			}
			for _, f := range obj.Fields {
				if !strings.EqualFold(f.Name, fieldName) {
					continue
				}
				if v := stringValue(f.Value); v != "" {
					values = append(values, v)
				}
			}
		}
	}
	return values
}

// FirstFieldValue returns the first FieldValues hit or "".
func FirstFieldValue(context []types.ContextObject, fieldName, objectType string) string {
	if values := FieldValues(context, fieldName, objectType); len(values) > 0 {
		return values[0]
	}
	return ""
}

// stringValue renders a JSON scalar; null, "", 0 and false count as empty.
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if !x {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(x)
	}
}
