package api

import (
	"net/http"
)

type schemaResponse struct {
	Dialect string        `json:"dialect"`
	Tables  []schemaTable `json:"tables"`
}

type schemaTable struct {
	TableName  string   `json:"table_name"`
	Columns    []string `json:"columns"`
	SampleRows [][]any  `json:"sample_rows,omitempty"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.SchemaDB == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema introspection is not configured", false, nil)
		return
	}

	tables, err := loadSchemaContext(deps, r)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", "failed to introspect schema", true, map[string]any{"details": err.Error()})
		return
	}

	response := schemaResponse{Tables: make([]schemaTable, 0, len(tables))}
	if deps.Gate != nil {
		response.Dialect = deps.Gate.Dialect()
	}
	for _, table := range tables {
		response.Tables = append(response.Tables, schemaTable{
			TableName:  table.TableName,
			Columns:    table.Columns,
			SampleRows: table.SampleRows,
		})
	}
	writeJSON(w, http.StatusOK, response)
}
