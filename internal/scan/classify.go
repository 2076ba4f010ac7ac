package scan

import "regexp"

// FileKind classifies a source file by its structural signature.
type FileKind int

const (
	// KindNone marks a file matching neither signature; such files are
	// skipped without error.
	KindNone FileKind = iota
	// KindContext marks the database context file.
	KindContext
	// KindRecord marks a record type file.
	KindRecord
)

// String returns a short name for the kind, used in log output.
func (k FileKind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindRecord:
		return "record"
	default:
		return "none"
	}
}

// Class declaration signatures. The context base type name is fixed: a
// public partial class extending DbContext is the context file, any other
// public partial class is a record file.
var (
	contextPattern = regexp.MustCompile(`(?m)^\s*public\s+partial\s+class\s+(\w+)\s*:\s*DbContext\b`)
	recordPattern  = regexp.MustCompile(`(?m)^\s*public\s+partial\s+class\s+(\w+)`)
)

// Classify decides whether content declares the database context or a
// record type and captures the class name. The signatures are mutually
// exclusive: the context signature is tried first, so the record signature
// never claims a context declaration. Matching is purely lexical.
func Classify(content string) (FileKind, string) {
	if m := contextPattern.FindStringSubmatch(content); m != nil {
		return KindContext, m[1]
	}
	if m := recordPattern.FindStringSubmatch(content); m != nil {
		return KindRecord, m[1]
	}
	return KindNone, ""
}
