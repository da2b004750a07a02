package dbgate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Reply row shapes, matching the HQ API responses byte for byte so both
// gateways are interchangeable behind the envelope.

type tableRow struct {
	TableName string `json:"table_name"`
}

type structureRow struct {
	Table       string `json:"Table"`
	CreateTable string `json:"Create Table"`
}

type PostgresConfig struct {
	DSN    string `envconfig:"DSN" split_words:"true" required:"true"`
	Schema string `envconfig:"SCHEMA" split_words:"true" default:"public"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresGateway serves the same query surface as the HQ API from a local
// Postgres database: "show tables" and "show create table" are answered
// from information_schema, anything else runs as-is.
type PostgresGateway struct {
	db     *bun.DB
	schema string
}

func NewPostgresGateway(cfg PostgresConfig) (*PostgresGateway, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresGateway{db: db, schema: schema}, nil
}

func (g *PostgresGateway) Close() error {
	return g.db.Close()
}

func (g *PostgresGateway) Query(ctx context.Context, query string) (Envelope, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(query), ";")
	lowered := strings.ToLower(trimmed)

	switch {
	case lowered == "show tables":
		return g.listTables(ctx)
	case strings.HasPrefix(lowered, "show create table "):
		table := strings.TrimSpace(trimmed[len("show create table "):])
		return g.createTableDDL(ctx, table)
	default:
		return g.runSQL(ctx, trimmed)
	}
}

func (g *PostgresGateway) listTables(ctx context.Context) (Envelope, error) {
	var names []string
	err := g.db.NewSelect().
		TableExpr("information_schema.tables").
		Column("table_name").
		Where("table_schema = ?", g.schema).
		Where("table_type = ?", "BASE TABLE").
		Order("table_name").
		Scan(ctx, &names)
	if err != nil {
		return domainError(err), nil
	}

	rows := make([]tableRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, tableRow{TableName: name})
	}
	return envelopeWith(rows)
}

type columnInfo struct {
	Name     string         `bun:"column_name"`
	DataType string         `bun:"data_type"`
	Nullable string         `bun:"is_nullable"`
	Default  sql.NullString `bun:"column_default"`
}

func (g *PostgresGateway) createTableDDL(ctx context.Context, table string) (Envelope, error) {
	if !tableNamePattern.MatchString(table) {
		return Envelope{Error: fmt.Sprintf("invalid table name: %s", table)}, nil
	}

	var cols []columnInfo
	err := g.db.NewSelect().
		TableExpr("information_schema.columns").
		Column("column_name", "data_type", "is_nullable", "column_default").
		Where("table_schema = ?", g.schema).
		Where("table_name = ?", table).
		Order("ordinal_position").
		Scan(ctx, &cols)
	if err != nil {
		return domainError(err), nil
	}
	if len(cols) == 0 {
		return Envelope{Error: fmt.Sprintf("unknown table: %s", table)}, nil
	}

	return envelopeWith([]structureRow{
		{Table: table, CreateTable: renderCreateTable(table, cols)},
	})
}

func renderCreateTable(table string, cols []columnInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)
	for i, col := range cols {
		fmt.Fprintf(&b, "  %s %s", col.Name, col.DataType)
		if col.Nullable == "NO" {
			b.WriteString(" NOT NULL")
		}
		if col.Default.Valid {
			fmt.Fprintf(&b, " DEFAULT %s", col.Default.String)
		}
		if i < len(cols)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

func (g *PostgresGateway) runSQL(ctx context.Context, query string) (Envelope, error) {
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return domainError(err), nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return domainError(err), nil
	}

	out := make([]map[string]string, 0, 16)
	for rows.Next() {
		values := make([]any, len(cols))
		for i := range values {
			values[i] = new(sql.NullString)
		}
		if err := rows.Scan(values...); err != nil {
			return domainError(err), nil
		}
		row := make(map[string]string, len(cols))
		for i, name := range cols {
			ns := values[i].(*sql.NullString)
			if ns.Valid {
				row[name] = ns.String
			} else {
				row[name] = ""
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return domainError(err), nil
	}

	return envelopeWith(out)
}

func envelopeWith(v any) (Envelope, error) {
	reply, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal gateway reply: %w", err)
	}
	return Envelope{Reply: reply, Error: StatusOK}, nil
}

// domainError keeps SQL-level failures inside the envelope so the loop can
// learn from them instead of aborting.
func domainError(err error) Envelope {
	return Envelope{Error: err.Error()}
}
