package plan

import "strings"

// verifyMarker is the prefix every verification step description starts
// with. The parent description is embedded between the quotes, so each
// verification layer adds exactly one occurrence of the marker.
const verifyMarker = "Verify result of '"

// VerifyDescription builds the description for a verification step over
// the given task description.
func VerifyDescription(task string) string {
	return verifyMarker + task + "'"
}

// IsVerification reports whether a description names a verification step.
func IsVerification(desc string) bool {
	return strings.HasPrefix(desc, verifyMarker)
}

// VerificationDepth counts how many verification layers already wrap the
// original task, by counting nested occurrences of the marker inside the
// description. This is the bound the inserter checks, not structural
// tree depth, which can be larger once corrective steps appear.
func VerificationDepth(desc string) int {
	depth := 0
	for {
		idx := strings.Index(desc, verifyMarker)
		if idx < 0 {
			return depth
		}
		depth++
		desc = desc[idx+len(verifyMarker):]
	}
}

// VerifiedTask extracts the innermost task description from a
// verification step description. Returns the input unchanged if it is
// not a verification description.
func VerifiedTask(desc string) string {
	for IsVerification(desc) {
		desc = strings.TrimSuffix(strings.TrimPrefix(desc, verifyMarker), "'")
	}
	return desc
}
