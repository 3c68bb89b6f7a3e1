package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

var createTableRe = regexp.MustCompile(`(?i)^CREATE TABLE IF NOT EXISTS\s+` + "`?" + `(\w+)`)

// Statement is one CREATE TABLE from the bundled schema.
type Statement struct {
	Table string
	SQL   string
}

// Statements splits the bundled schema in dependency order.
func Statements() []Statement {
	out := []Statement{}
	for _, raw := range strings.Split(schemaSQL, ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		m := createTableRe.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		out = append(out, Statement{Table: m[1], SQL: stmt})
	}
	return out
}

// HasTable reports whether table exists in the connected database.
func HasTable(ctx context.Context, q DBTX, table string) (bool, error) {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return name.Valid && name.String != "", nil
}

// EnsureSchema creates the tables that are missing and returns their names.
// Existing tables are left untouched.
func EnsureSchema(ctx context.Context, q DBTX) ([]string, error) {
	created := []string{}
	for _, st := range Statements() {
		ok, err := HasTable(ctx, q, st.Table)
		if err != nil {
			return created, err
		}
		if ok {
			continue
		}
		if _, err := q.ExecContext(ctx, st.SQL); err != nil {
			return created, fmt.Errorf("create table %s: %w", st.Table, err)
		}
		created = append(created, st.Table)
	}
	return created, nil
}
