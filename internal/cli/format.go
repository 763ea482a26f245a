package cli

import (
	"fmt"
	"sort"
	"strings"
)

// formatArgs prints trace arguments as {k=v ...} in key order.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
