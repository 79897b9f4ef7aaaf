package openapi

import "strings"

// kebabCase splits camelCase word boundaries, lower-cases the result, and
// replaces runs of any remaining non-alphanumeric characters (existing
// hyphens, underscores, dots, spaces) with a single hyphen, trimming
// leading/trailing hyphens. Operation ids are frequently camelCase
// ("listPets"); path segments are usually already separator-delimited —
// both funnel through the same pass.
func kebabCase(s string) string {
	runes := []rune(s)
	var camelSplit strings.Builder
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' && i > 0 {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				camelSplit.WriteByte('-')
			}
		}
		camelSplit.WriteRune(r)
	}

	var b strings.Builder
	lastWasSep := true
	for _, r := range strings.ToLower(camelSplit.String()) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasSep = false
		default:
			if !lastWasSep {
				b.WriteByte('-')
				lastWasSep = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// kebabCaseColonPath kebab-cases an operationId segment-by-segment around
// its ":" delimiters instead of treating them as just another separator
// character to collapse into a hyphen. An operationId like "apps:list" is
// already in the command-name grammar (spec.md §6's "group[:subgroup]...
// name"), so it must survive as "apps:list", not flatten into "apps-list" -
// the latter can no longer be recognized as a listing command by
// buildListIndex's ":list" suffix check (spec.md §4.B step 4).
func kebabCaseColonPath(s string) string {
	parts := strings.Split(s, ":")
	for i, p := range parts {
		parts[i] = kebabCase(p)
	}
	return strings.Join(parts, ":")
}

// isPlaceholder reports whether a path segment is an OpenAPI path
// placeholder like "{id}".
func isPlaceholder(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}

// placeholderName strips the braces from a path placeholder segment.
func placeholderName(segment string) string {
	return strings.TrimSuffix(strings.TrimPrefix(segment, "{"), "}")
}

// pathSegments splits an OpenAPI path template into its non-empty segments.
func pathSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// singularize applies the spec's conservative singular<->plural mapping:
// strip a trailing "s" only.
func singularize(s string) string {
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return s[:len(s)-1]
	}
	return s
}

// pluralize applies the inverse of singularize: append "s" only.
func pluralize(s string) string {
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}
