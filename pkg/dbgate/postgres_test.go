package dbgate

import (
	"database/sql"
	"strings"
	"testing"
)

func TestRenderCreateTable(t *testing.T) {
	t.Parallel()

	got := renderCreateTable("users", []columnInfo{
		{Name: "id", DataType: "integer", Nullable: "NO"},
		{Name: "username", DataType: "character varying", Nullable: "NO"},
		{Name: "is_active", DataType: "integer", Nullable: "YES", Default: sql.NullString{String: "1", Valid: true}},
	})

	want := strings.Join([]string{
		"CREATE TABLE users (",
		"  id integer NOT NULL,",
		"  username character varying NOT NULL,",
		"  is_active integer DEFAULT 1",
		")",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected DDL:\n%s\nwant:\n%s", got, want)
	}
}

func TestTableNamePattern(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"users", "data_centers", "_private", "t2"} {
		if !tableNamePattern.MatchString(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{"", "2fast", "users; drop table users", "a-b", "users "} {
		if tableNamePattern.MatchString(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestReplyRowWireKeys(t *testing.T) {
	t.Parallel()

	env, err := envelopeWith([]structureRow{
		{Table: "users", CreateTable: "CREATE TABLE users (id int)"},
	})
	if err != nil {
		t.Fatalf("envelopeWith() error = %v", err)
	}
	if !env.OK() {
		t.Fatalf("expected ok envelope, got %q", env.Error)
	}
	want := `[{"Table":"users","Create Table":"CREATE TABLE users (id int)"}]`
	if string(env.Reply) != want {
		t.Fatalf("unexpected reply:\n%s\nwant:\n%s", env.Reply, want)
	}

	env, err = envelopeWith([]tableRow{{TableName: "users"}})
	if err != nil {
		t.Fatalf("envelopeWith() error = %v", err)
	}
	if string(env.Reply) != `[{"table_name":"users"}]` {
		t.Fatalf("unexpected reply: %s", env.Reply)
	}
}
