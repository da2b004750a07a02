package contract

// Capability names. The terminal tool ends the task on a successful
// dispatch; everything else feeds the trace.
const (
	ToolGetTables         = "get_tables"
	ToolGetTableStructure = "get_table_structure"
	ToolAnalyzeStructure  = "analyze_structure"
	ToolExecuteQuery      = "execute_query"
	ToolFinalAnswer       = "final_answer"
)

// Database tool payload rows. Field names mirror the upstream API responses
// verbatim, including the space in "Create Table".

type TableRow struct {
	TableName string `json:"table_name"`
}

type StructureRow struct {
	Table       string `json:"Table"`
	CreateTable string `json:"Create Table"`
}

type QueryRow map[string]string
