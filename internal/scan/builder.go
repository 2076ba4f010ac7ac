package scan

import "github.com/leapstack-labs/efscan/pkg/model"

// Builder assembles one Model from classified source files. It enforces the
// sequential invariants: at most one context file across the whole scan,
// at least one field per record (checked by the record extractor), and a
// context present at finalization. Files are folded in one at a time so the
// context-uniqueness check happens incrementally.
type Builder struct {
	model       *model.Model
	contextFile string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{model: &model.Model{}}
}

// Add classifies one source file and folds it into the model, returning the
// kind the file matched. Files matching neither signature are skipped and
// reported as KindNone.
func (b *Builder) Add(file SourceFile) (FileKind, error) {
	kind, className := Classify(file.Content)

	switch kind {
	case KindContext:
		if b.contextFile != "" {
			return kind, &DuplicateContextError{First: b.contextFile, Second: file.Path}
		}
		dbctx, namespace, err := extractContext(file, className)
		if err != nil {
			return kind, err
		}
		b.model.Context = dbctx
		b.model.Namespace = namespace
		b.contextFile = file.Path

	case KindRecord:
		obj, err := extractRecord(file, className)
		if err != nil {
			return kind, err
		}
		b.model.Objects = append(b.model.Objects, obj)
	}

	return kind, nil
}

// ContextFile returns the path of the context file once one has been added.
func (b *Builder) ContextFile() string {
	return b.contextFile
}

// Finalize returns the assembled model. A model without a context is
// unusable downstream, so finalization fails rather than handing one out.
func (b *Builder) Finalize() (*model.Model, error) {
	if b.model.Context == nil {
		return nil, &MissingContextError{}
	}
	return b.model, nil
}
