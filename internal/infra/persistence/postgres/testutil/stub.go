// Package testutil provides an in-memory stub database for postgres store tests.
// It understands the small statement shapes the record store issues: inserts
// with optional ON CONFLICT upserts, equality-filtered deletes and selects.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// StubConn records executed statements and holds table rows keyed by column.
type StubConn struct {
	Execs      []string
	Tables     map[string][]map[string]any
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	FailPing   bool
	RowsErr    error
	// FailTables makes inserts into and selects from the named tables fail.
	FailTables map[string]bool
}

var stubSeq atomic.Int64

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx. Rollback restores the tables as they
// were when the transaction began.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c, saved: c.copyTables()}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	if c.Tables == nil {
		c.Tables = make(map[string][]map[string]any)
	}
	verb := strings.ToUpper(firstWord(query))
	switch verb {
	case "INSERT":
		return c.insert(query, args)
	case "DELETE":
		table, preds, err := parseDelete(query)
		if err != nil {
			return nil, err
		}
		var kept []map[string]any
		removed := 0
		for _, row := range c.Tables[table] {
			if matches(row, preds, args) {
				removed++
				continue
			}
			kept = append(kept, row)
		}
		c.Tables[table] = kept
		return driver.RowsAffected(removed), nil
	}
	return driver.RowsAffected(0), nil
}

func (c *StubConn) insert(query string, args []driver.NamedValue) (driver.Result, error) {
	table, cols, conflict, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("exec fail for %s", table)
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", table)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = normalize(args[i].Value)
	}
	if len(conflict) > 0 {
		var kept []map[string]any
		for _, existing := range c.Tables[table] {
			same := true
			for _, col := range conflict {
				if existing[col] != row[col] {
					same = false
					break
				}
			}
			if !same {
				kept = append(kept, existing)
			}
		}
		c.Tables[table] = kept
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	table, cols, preds, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("query fail for %s", table)
	}
	var values [][]driver.Value
	for _, row := range c.Tables[table] {
		if !matches(row, preds, args) {
			continue
		}
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: cols, rows: values, err: c.RowsErr}, nil
}

func (c *StubConn) copyTables() map[string][]map[string]any {
	out := make(map[string][]map[string]any, len(c.Tables))
	for name, rows := range c.Tables {
		cp := make([]map[string]any, len(rows))
		copy(cp, rows)
		out[name] = cp
	}
	return out
}

type stubTx struct {
	conn  *StubConn
	saved map[string][]map[string]any
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		t.conn.Tables = t.saved
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error {
	t.conn.Tables = t.saved
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

// normalize stores text payloads as bytes so scans into []byte and string
// both work.
func normalize(v driver.Value) driver.Value {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func matches(row map[string]any, preds []string, args []driver.NamedValue) bool {
	for i, col := range preds {
		if i >= len(args) || row[col] != normalize(args[i].Value) {
			return false
		}
	}
	return true
}

func firstWord(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseInsert(query string) (string, []string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	cols := splitColumns(rest[open+1 : closeIdx])
	var conflict []string
	if idx := strings.Index(up, "ON CONFLICT("); idx != -1 {
		tail := query[idx+len("ON CONFLICT("):]
		if end := strings.Index(tail, ")"); end != -1 {
			conflict = splitColumns(tail[:end])
		}
	}
	return table, cols, conflict, nil
}

// parseWhere returns the columns of "a = $1 AND b = $2" predicates in order.
func parseWhere(clause string) []string {
	if clause == "" {
		return nil
	}
	var cols []string
	for _, part := range strings.Split(strings.ToLower(clause), " and ") {
		kv := strings.SplitN(part, "=", 2)
		cols = append(cols, strings.TrimSpace(kv[0]))
	}
	return cols
}

func splitClause(rest string) (string, string) {
	lower := strings.ToLower(rest)
	where := ""
	head := rest
	if idx := strings.Index(lower, " where "); idx != -1 {
		head = rest[:idx]
		where = rest[idx+len(" where "):]
	}
	if idx := strings.Index(strings.ToLower(where), " order by "); idx != -1 {
		where = where[:idx]
	}
	if idx := strings.Index(strings.ToLower(head), " order by "); idx != -1 {
		head = head[:idx]
	}
	return strings.TrimSpace(head), strings.TrimSpace(where)
}

func parseDelete(query string) (string, []string, error) {
	prefix := "delete from "
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), prefix) {
		return "", nil, fmt.Errorf("cannot parse delete: %s", query)
	}
	rest := " " + strings.TrimSpace(strings.TrimSpace(query)[len(prefix):])
	head, where := splitClause(rest)
	return strings.ToLower(head), parseWhere(where), nil
}

func parseSelect(query string) (string, []string, []string, error) {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select ") {
		return "", nil, nil, fmt.Errorf("cannot parse select: %s", query)
	}
	fromIdx := strings.Index(lower, " from ")
	if fromIdx == -1 {
		return "", nil, nil, fmt.Errorf("cannot parse select: %s", query)
	}
	cols := splitColumns(trimmed[len("select "):fromIdx])
	head, where := splitClause(trimmed[fromIdx+len(" from ")-1:])
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return "", nil, nil, fmt.Errorf("cannot parse select: %s", query)
	}
	return strings.ToLower(fields[0]), cols, parseWhere(where), nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
