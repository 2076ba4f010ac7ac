package output

// Result structs for the JSON output mode. Commands fill these and hand
// them to Renderer.JSON, so the wire shape stays in one place.

// ScanOutput is the result of a single scan.
type ScanOutput struct {
	ScanID        string `json:"scan_id"`
	Root          string `json:"root"`
	Namespace     string `json:"namespace"`
	Context       string `json:"context"`
	FilesSeen     int    `json:"files_seen"`
	FilesChanged  int    `json:"files_changed"`
	FilesDeleted  int    `json:"files_deleted"`
	Tables        int    `json:"table_count"`
	Relationships int    `json:"relationship_count"`
	Duration      string `json:"duration"`
}

// ListOutput lists every table in the model.
type ListOutput struct {
	Namespace string      `json:"namespace"`
	Context   string      `json:"context"`
	Tables    []TableInfo `json:"tables"`
	Summary   ListSummary `json:"summary"`
}

// TableInfo is one row of the list output.
type TableInfo struct {
	ClassName  string   `json:"class_name"`
	Key        string   `json:"key"`
	File       string   `json:"file"`
	FieldCount int      `json:"field_count"`
	Dependants []string `json:"dependants,omitempty"`
}

// ListSummary totals the list output.
type ListSummary struct {
	Tables        int `json:"table_count"`
	Relationships int `json:"relationship_count"`
}

// ShowOutput describes a single table in detail.
type ShowOutput struct {
	ClassName  string      `json:"class_name"`
	File       string      `json:"file"`
	Key        string      `json:"key"`
	Namespace  string      `json:"namespace"`
	Fields     []FieldInfo `json:"fields"`
	Parents    []string    `json:"parents,omitempty"`
	Dependants []string    `json:"dependants,omitempty"`
	SelfRef    bool        `json:"self_ref,omitempty"`
}

// FieldInfo is one column of a table.
type FieldInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Nullable   bool     `json:"nullable"`
	Attributes []string `json:"attributes,omitempty"`
}

// GraphOutput is the relationship graph report.
type GraphOutput struct {
	Nodes   []GraphNode  `json:"nodes"`
	Levels  []GraphLevel `json:"levels"`
	Summary GraphSummary `json:"summary"`
}

// GraphNode is one table plus its direct relationships.
type GraphNode struct {
	Name     string   `json:"name"`
	Parents  []string `json:"parents,omitempty"`
	Children []string `json:"children,omitempty"`
	SelfRef  bool     `json:"self_ref,omitempty"`
}

// GraphLevel groups tables by creation-order depth.
type GraphLevel struct {
	Level  int      `json:"level"`
	Tables []string `json:"tables"`
}

// GraphSummary totals the graph output.
type GraphSummary struct {
	Tables        int `json:"table_count"`
	Relationships int `json:"relationship_count"`
	Depth         int `json:"depth"`
}

// ValidateOutput is the result of running the validation steps.
type ValidateOutput struct {
	Valid  bool          `json:"valid"`
	Checks []CheckResult `json:"checks"`
	Error  *Diagnostic   `json:"error,omitempty"`
}

// CheckResult records one validation step's outcome. Validation stops at
// the first failure, so steps after it report status "skipped".
type CheckResult struct {
	RuleID string `json:"rule_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Diagnostic pinpoints a validation failure.
type Diagnostic struct {
	RuleID  string `json:"rule_id"`
	Table   string `json:"table,omitempty"`
	Message string `json:"message"`
}

// HistoryOutput lists recorded scans, newest first.
type HistoryOutput struct {
	Scans []ScanInfo `json:"scans"`
}

// ScanInfo is one row of the scan history.
type ScanInfo struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
	FilesSeen     int    `json:"files_seen"`
	FilesChanged  int    `json:"files_changed"`
	Tables        int    `json:"table_count"`
	Relationships int    `json:"relationship_count"`
	Error         string `json:"error,omitempty"`
}

// RuleInfo describes one configured validation step.
type RuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// RulesOutput lists the validation steps that a scan would run.
type RulesOutput struct {
	Rules []RuleInfo `json:"rules"`
}
