package scan

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// Record file patterns.
var (
	// public Device()
	ctorPattern = regexp.MustCompile(`^\s*public\s+(\w+)\s*\(\s*\)`)
	// [Key], [Required], [StringLength(100)]
	attributePattern = regexp.MustCompile(`^\s*\[\s*(.+?)\s*\]\s*$`)
	// public virtual ICollection<Event> Events { get; set; }
	fieldPattern = regexp.MustCompile(`^\s*public\s+(?:virtual\s+)?([\w.<>\[\]?]+)\s+(\w+)\s*\{\s*get;\s*set;\s*\}`)
	// a line consisting only of a closing brace
	closeBracePattern = regexp.MustCompile(`^\s*\}\s*$`)
)

// scanPhase tracks the record scan's position relative to the
// parameterless constructor, when the class declares one.
type scanPhase int

const (
	seekingCtorStart scanPhase = iota
	seekingCtorEnd
	collectingFields
)

// extractRecord scans a record file into a TableObject.
//
// When the class declares a parameterless constructor the scan runs in
// three phases: skip to the constructor line, skip to the first line
// consisting only of a closing brace, then collect fields. The brace match
// is a heuristic, not a brace-depth count: a nested block inside the
// constructor whose '}' sits alone on a line ends the skip early. Generated
// sources keep constructor bodies flat, so the shortcut holds.
//
// While collecting, attribute lines accumulate until the next field
// declaration consumes them; lines matching nothing are ignored and leave
// the accumulator untouched.
func extractRecord(file SourceFile, className string) (*model.TableObject, error) {
	obj := &model.TableObject{ClassName: className, FileName: file.Path}

	phase := collectingFields
	if hasCtor(file.Content, className) {
		phase = seekingCtorStart
	}

	var pending []string

	scanner := bufio.NewScanner(strings.NewReader(file.Content))
	for scanner.Scan() {
		line := scanner.Text()

		switch phase {
		case seekingCtorStart:
			if m := ctorPattern.FindStringSubmatch(line); m != nil && m[1] == className {
				phase = seekingCtorEnd
			}

		case seekingCtorEnd:
			if closeBracePattern.MatchString(line) {
				phase = collectingFields
			}

		case collectingFields:
			if m := attributePattern.FindStringSubmatch(line); m != nil {
				pending = append(pending, m[1])
				continue
			}

			m := fieldPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			f := buildField(m[1], m[2], pending)
			pending = nil
			if f.HasAttribute("Key") {
				// Last Key attribute wins when several fields carry one.
				obj.KeyName = f.VariableName
			}
			obj.Fields = append(obj.Fields, f)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", file.Path, err)
	}

	if len(obj.Fields) == 0 {
		return nil, &EmptyRecordError{File: file.Path, ClassName: className}
	}

	return obj, nil
}

// hasCtor reports whether a parameterless constructor for className appears
// anywhere in the content.
func hasCtor(content, className string) bool {
	for _, m := range ctorPattern.FindAllStringSubmatch(content, -1) {
		if m[1] == className {
			return true
		}
	}
	return false
}

// buildField constructs a Field from a matched declaration and the pending
// attribute tokens. Nullability is derived here: a trailing '?' on the
// declared type allows null, as does a string property without a Required
// attribute.
func buildField(typeName, varName string, pending []string) *model.Field {
	f := &model.Field{
		TypeName:     typeName,
		VariableName: varName,
		Attributes:   append([]string(nil), pending...),
	}

	switch {
	case strings.HasSuffix(typeName, "?"):
		f.TypeName = strings.TrimSuffix(typeName, "?")
		f.AllowsNull = true
	case typeName == "string" && !f.HasAttribute("Required"):
		f.AllowsNull = true
	}

	return f
}
