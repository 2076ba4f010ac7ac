package drift

// Finding kinds, in the order they are reported for a table.
const (
	KindMissingTable  = "missing_table"
	KindMissingColumn = "missing_column"
	KindExtraColumn   = "extra_column"
	KindNullability   = "nullability_mismatch"
	KindKeyMismatch   = "key_mismatch"
)

// Finding is a single divergence between the model and the database.
type Finding struct {
	Kind     string `json:"kind"`
	Table    string `json:"table"`
	Column   string `json:"column,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message"`
}

// Report collects the findings of one verification run.
type Report struct {
	Driver        string    `json:"driver"`
	Schema        string    `json:"schema"`
	TablesChecked int       `json:"tables_checked"`
	Findings      []Finding `json:"findings"`
}

// Clean reports whether the database matches the model.
func (r *Report) Clean() bool {
	return len(r.Findings) == 0
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
}
