package deps

import (
	"strconv"
	"strings"
)

// NormalizeVersion strips range operators and whitespace from a manifest
// version string so it can be compared numerically: leading ^ ~ > = < !
// are dropped and the string is truncated at the first comma or "||".
func NormalizeVersion(version string) string {
	v := strings.TrimSpace(version)

	if i := strings.Index(v, ","); i >= 0 {
		v = v[:i]
	}
	if i := strings.Index(v, "||"); i >= 0 {
		v = v[:i]
	}

	v = strings.TrimLeft(v, "^~>=<! ")
	return strings.TrimSpace(v)
}

// compareVersions returns -1, 0 or 1 comparing two dotted version strings
// numerically component by component. Pre-release/build suffixes after "-"
// or "+" are ignored. Non-numeric components compare as strings.
func compareVersions(a, b string) int {
	pa := splitVersion(a)
	pb := splitVersion(b)

	n := max(len(pa), len(pb))
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(pa) {
			sa = pa[i]
		}
		if i < len(pb) {
			sb = pb[i]
		}

		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if errA == nil && errB == nil {
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if sa != sb {
			if sa < sb {
				return -1
			}
			return 1
		}
	}
	return 0
}

func splitVersion(v string) []string {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return nil
	}
	return strings.Split(v, ".")
}

// matchesConstraint evaluates a simple single-operator constraint
// ("<4.17.21", "<=1.2.3", "==3.2.0", ">=2.0") against a normalised
// version. Unknown shapes never match.
func matchesConstraint(version, constraint string) bool {
	constraint = strings.TrimSpace(constraint)
	version = NormalizeVersion(version)
	if version == "" || constraint == "" {
		return false
	}

	op := "=="
	rest := constraint
	for _, candidate := range []string{"<=", ">=", "==", "!=", "<", ">"} {
		if strings.HasPrefix(constraint, candidate) {
			op = candidate
			rest = strings.TrimSpace(constraint[len(candidate):])
			break
		}
	}

	cmp := compareVersions(version, rest)
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "!=":
		return cmp != 0
	default:
		return cmp == 0
	}
}
