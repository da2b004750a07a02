package tool

import (
	contractx "github.com/krzycho/dbagent/agent/contract"
	registryx "github.com/krzycho/dbagent/agent/registry"
)

// Descriptors enumerates the fixed capability set of the schema-discovery
// loop. The registry built from it never changes during a task.
func Descriptors() []registryx.Descriptor {
	return []registryx.Descriptor{
		{
			Name:       contractx.ToolGetTables,
			Desc:       "List all tables in the database.",
			Params:     map[string]registryx.ParamSpec{},
			OutputDesc: "rows of {table_name}",
			ErrorModes: []string{"collaborator"},
		},
		{
			Name: contractx.ToolGetTableStructure,
			Desc: "Fetch the CREATE TABLE statement of one table.",
			Params: map[string]registryx.ParamSpec{
				"table_name": {Type: registryx.ParamString, Desc: "Table to describe", Required: true},
			},
			OutputDesc: "rows of {Table, Create Table}",
			ErrorModes: []string{"collaborator", "unknown_table"},
		},
		{
			Name: contractx.ToolAnalyzeStructure,
			Desc: "Derive the SQL query that solves the task from the known table structures.",
			Params: map[string]registryx.ParamSpec{
				"table_structures": {Type: registryx.ParamObject, Desc: "table name -> CREATE TABLE DDL", Required: true},
				"task_description": {Type: registryx.ParamString, Desc: "What the query must answer", Required: true},
			},
			OutputDesc: "raw SQL text",
			ErrorModes: []string{"no_usable_query"},
		},
		{
			Name: contractx.ToolExecuteQuery,
			Desc: "Run a SQL query against the database.",
			Params: map[string]registryx.ParamSpec{
				"query": {Type: registryx.ParamString, Desc: "SQL to execute", Required: true},
			},
			OutputDesc: "rows as column -> value maps",
			ErrorModes: []string{"collaborator", "syntax_error"},
		},
		{
			Name: contractx.ToolFinalAnswer,
			Desc: "Submit the finished answer to the central system and end the task.",
			Params: map[string]registryx.ParamSpec{
				"answer": {Type: registryx.ParamArray, Desc: "Answer values", Required: true},
			},
			OutputDesc: "submission receipt",
			ErrorModes: []string{"rejected"},
			Terminal:   true,
		},
	}
}

// DefaultRegistry builds the read-only registry for the standard tool set.
func DefaultRegistry() *registryx.Registry {
	return registryx.MustNew(Descriptors()...)
}
