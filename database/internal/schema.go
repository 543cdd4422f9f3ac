package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Column describes one column of a table as the schema checks see it.
type Column struct {
	DataType string
	Nullable bool
}

// CompareSchema reports every column of expected that is missing from actual
// or differs in type or nullability. Extra columns in actual are allowed.
func CompareSchema(tableName string, expected, actual map[string]Column) error {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	var missing, mismatched []string
	for _, name := range names {
		want := expected[name]
		got, ok := actual[name]
		if !ok {
			missing = append(missing, name)
			continue
		}

		if got.DataType != want.DataType {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected %s, got %s", name, want.DataType, got.DataType))
		}

		if got.Nullable != want.Nullable {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, want.Nullable, got.Nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "table %s schema validation failed:\n", tableName)
	if len(missing) > 0 {
		fmt.Fprintf(&msg, "  missing columns: %s\n", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		msg.WriteString("  mismatched columns:\n")
		for _, m := range mismatched {
			fmt.Fprintf(&msg, "    - %s\n", m)
		}
	}

	return errors.New(msg.String())
}
