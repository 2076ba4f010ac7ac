package scan

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// Context file patterns.
var (
	namespacePattern = regexp.MustCompile(`^\s*namespace\s+([\w.]+)`)
	dbSetPattern     = regexp.MustCompile(`^\s*public\s+virtual\s+DbSet<(\w+)>\s+(\w+)\b`)
)

// extractContext pulls the namespace and the DbSet declarations out of a
// classified context file. Exactly one namespace declaration must be
// present. DbSets keep their order of appearance; duplicate variable names
// are kept exactly as declared.
func extractContext(file SourceFile, className string) (*model.DatabaseContext, string, error) {
	dbctx := &model.DatabaseContext{ClassName: className}
	var namespaces []string

	scanner := bufio.NewScanner(strings.NewReader(file.Content))
	for scanner.Scan() {
		line := scanner.Text()

		if m := namespacePattern.FindStringSubmatch(line); m != nil {
			namespaces = append(namespaces, m[1])
			continue
		}

		if m := dbSetPattern.FindStringSubmatch(line); m != nil {
			dbctx.Tables = append(dbctx.Tables, model.DbSet{TypeName: m[1], VariableName: m[2]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("error scanning %s: %w", file.Path, err)
	}

	if len(namespaces) != 1 {
		return nil, "", &MissingNamespaceError{File: file.Path, Count: len(namespaces)}
	}

	return dbctx, namespaces[0], nil
}
