package trace

import contractx "github.com/krzycho/dbagent/agent/contract"

// Knowledge helpers read accumulated facts out of a trace so the reasoning
// roles never have to re-request data a previous cycle already fetched.

// TablesListed returns the table names from the most recent successful
// get_tables call, and whether one happened at all.
func TablesListed(entries []contractx.TraceEntry) ([]string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Action.Tool != contractx.ToolGetTables || !e.Result.OK() {
			continue
		}
		rows, ok := e.Result.Payload.([]contractx.TableRow)
		if !ok {
			continue
		}
		names := make([]string, 0, len(rows))
		for _, row := range rows {
			names = append(names, row.TableName)
		}
		return names, true
	}
	return nil, false
}

// Structures collects every table DDL fetched so far, keyed by table name.
// Later fetches win, which also makes repeated introspection harmless.
func Structures(entries []contractx.TraceEntry) map[string]string {
	out := make(map[string]string)
	for _, e := range entries {
		if e.Action.Tool != contractx.ToolGetTableStructure || !e.Result.OK() {
			continue
		}
		rows, ok := e.Result.Payload.([]contractx.StructureRow)
		if !ok {
			continue
		}
		for _, row := range rows {
			if row.Table != "" {
				out[row.Table] = row.CreateTable
			}
		}
	}
	return out
}

// HasStructure reports whether the DDL for table is already in the trace.
func HasStructure(entries []contractx.TraceEntry, table string) bool {
	_, ok := Structures(entries)[table]
	return ok
}

// LastQuery returns the most recent SQL produced by analyze_structure.
func LastQuery(entries []contractx.TraceEntry) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Action.Tool != contractx.ToolAnalyzeStructure || !e.Result.OK() {
			continue
		}
		if q, ok := e.Result.Payload.(string); ok && q != "" {
			return q, true
		}
	}
	return "", false
}

// LastRows returns the rows of the most recent successful execute_query.
func LastRows(entries []contractx.TraceEntry) ([]contractx.QueryRow, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Action.Tool != contractx.ToolExecuteQuery || !e.Result.OK() {
			continue
		}
		if rows, ok := e.Result.Payload.([]contractx.QueryRow); ok {
			return rows, true
		}
	}
	return nil, false
}
