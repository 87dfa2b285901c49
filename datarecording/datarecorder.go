// Package datarecording stores flat records in a SQLite database. Records
// are buffered per table and written in batches.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DefaultBatchSize is the number of buffered records that triggers a flush.
const DefaultBatchSize = 10000

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of the tables created so far.
	ListTables() []string

	// Flush writes every buffered entry.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// New creates a recorder writing to path + ".sqlite3". An empty path picks
// a unique name. The file must not exist.
func New(path string) DataRecorder {
	if path == "" {
		path = "akitaio_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	return NewWithDB(db)
}

// NewWithDB creates a recorder on an open database. The buffered entries are
// flushed when the program leaves through atexit.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: DefaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	name       string
	structType reflect.Type
	insertSQL  string
	entries    []any
}

type sqliteWriter struct {
	sync.Mutex

	db         *sql.DB
	tables     map[string]*table
	order      []*table
	batchSize  int
	entryCount int
	closed     bool
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry %T is not a struct", entry)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of %T cannot be recorded",
				field.Name, entry)
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	w.Lock()
	defer w.Unlock()

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	names := structs.Names(sampleEntry)
	w.mustExecute(`CREATE TABLE ` + tableName +
		` (` + "\n\t" + strings.Join(names, ", \n\t") + "\n" + `);`)

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	t := &table{
		name:       tableName,
		structType: reflect.TypeOf(sampleEntry),
		insertSQL:  "INSERT INTO " + tableName + " VALUES (" + marks + ")",
	}
	w.tables[tableName] = t
	w.order = append(w.order, t)
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	w.Lock()
	defer w.Unlock()

	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("entry %T does not match table %s", entry, tableName))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	w.Lock()
	defer w.Unlock()

	names := make([]string, 0, len(w.order))
	for _, t := range w.order {
		names = append(names, t.name)
	}

	return names
}

func (w *sqliteWriter) Flush() {
	w.Lock()
	defer w.Unlock()

	w.flush()
}

func (w *sqliteWriter) flush() {
	if w.entryCount == 0 || w.closed {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		panic(err)
	}

	for _, t := range w.order {
		if len(t.entries) == 0 {
			continue
		}

		if err := insertAll(tx, t); err != nil {
			_ = tx.Rollback()
			panic(err)
		}

		t.entries = nil
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	w.entryCount = 0
}

func insertAll(tx *sql.Tx, t *table) error {
	stmt, err := tx.Prepare(t.insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.name, err)
		}
	}

	return nil
}

func (w *sqliteWriter) Close() error {
	w.Lock()
	defer w.Unlock()

	w.flush()
	w.closed = true

	return w.db.Close()
}

func (w *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := w.db.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
