package db

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tablekit/tablekit/internal/engine"
	"github.com/tablekit/tablekit/internal/engine/sqlite"
	"github.com/tablekit/tablekit/internal/meta"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	d, err := Open(sqlite.New(), engine.Config{Driver: engine.SQLite, Path: ":memory:"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { d.Disconnect() })
	return d
}

func schoolsDef() meta.TableInfo {
	return meta.TableInfo{
		Name: "Schools",
		Columns: []meta.Column{
			{Name: "id", Type: meta.TypeInt, PrimaryKey: true},
			{Name: "name", Type: meta.TypeVarchar, Length: intPtr(100), Unique: true, Default: strPtr("ENSP Yaounde")},
		},
	}
}

func studentsDef() meta.TableInfo {
	return meta.TableInfo{
		Name: "Students",
		Columns: []meta.Column{
			{Name: "id", Type: meta.TypeInt, PrimaryKey: true},
			{Name: "first_name", Type: meta.TypeVarchar, Length: intPtr(50)},
			{Name: "last_name", Type: meta.TypeVarchar, Length: intPtr(50)},
			{Name: "school_id", Type: meta.TypeInt, Nullable: true, ForeignKey: &meta.ForeignKeyRef{
				Table: "Schools", Column: "id", OnDelete: meta.Cascade, OnUpdate: meta.NoAction,
			}},
		},
		UniqueConstraints: []meta.UniqueColumns{
			{Name: "uq_students_name", Columns: []string{"first_name", "last_name"}},
		},
	}
}

func TestOpenNamesSQLiteFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school.db")
	d, err := Open(sqlite.New(), engine.Config{Driver: engine.SQLite, Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Disconnect()

	if d.Name() != "school" {
		t.Errorf("Name() = %q, want %q", d.Name(), "school")
	}
	if d.Driver() != engine.SQLite {
		t.Errorf("Driver() = %q", d.Driver())
	}
}

func TestCreateTableAndGet(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if table.Name() != "Schools" {
		t.Errorf("table.Name() = %q", table.Name())
	}

	pk := table.PrimaryKey()
	if pk == nil || pk.Name() != "id" {
		t.Errorf("PrimaryKey() = %v", pk)
	}

	name, err := table.Column("name")
	if err != nil {
		t.Fatalf("Column(name) failed: %v", err)
	}
	if !name.Unique() {
		t.Error("name column should be unique")
	}
	if length, ok := name.Length(); !ok || length != 100 {
		t.Errorf("name length = %d, %v", length, ok)
	}

	// Same wrapper comes back on repeat access.
	again, err := d.Table(ctx, "Schools")
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if again != table {
		t.Error("Table() returned a different wrapper for a cached table")
	}
}

func TestCreateTableGetOrCreate(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	first, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	// Creating again with the same name wraps the existing table.
	second, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("second CreateTable failed: %v", err)
	}
	if first != second {
		t.Error("CreateTable created a second wrapper for an existing table")
	}
}

func TestCreateTableRejectsMissingForeignKeyTarget(t *testing.T) {
	d := openTestDatabase(t)

	_, err := d.CreateTable(context.Background(), studentsDef())
	if err == nil {
		t.Fatal("CreateTable accepted a foreign key to a missing table")
	}
}

func TestTableMissing(t *testing.T) {
	d := openTestDatabase(t)

	_, err := d.Table(context.Background(), "nope")
	if !errors.Is(err, engine.ErrNoSuchTable) {
		t.Errorf("Table(nope) error = %v, want ErrNoSuchTable", err)
	}
}

func TestAddColumn(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	col, err := table.AddColumn(ctx, meta.Column{Name: "motto", Type: meta.TypeText, Nullable: true})
	if err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	if col.Name() != "motto" {
		t.Errorf("col.Name() = %q", col.Name())
	}
	if len(table.Columns()) != 3 {
		t.Errorf("len(Columns()) = %d, want 3", len(table.Columns()))
	}
}

func TestAddColumnDuplicateLeavesTableUnchanged(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	before := len(table.Columns())

	if _, err := table.AddColumn(ctx, meta.Column{Name: "name", Type: meta.TypeText, Nullable: true}); err == nil {
		t.Fatal("AddColumn accepted a duplicate column name")
	}
	if len(table.Columns()) != before {
		t.Errorf("column count changed after rejected add: %d -> %d", before, len(table.Columns()))
	}

	// Engine state unchanged as well.
	if err := table.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(table.Columns()) != before {
		t.Errorf("engine column count changed after rejected add")
	}
}

func TestAddColumnRejectsMissingForeignKeyTarget(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	bad := meta.Column{Name: "city_id", Type: meta.TypeInt, Nullable: true, ForeignKey: &meta.ForeignKeyRef{
		Table: "Cities", Column: "id", OnDelete: meta.NoAction, OnUpdate: meta.NoAction,
	}}
	if _, err := table.AddColumn(ctx, bad); err == nil {
		t.Fatal("AddColumn accepted a foreign key to a missing table")
	}
}

func TestAddForeignKeyColumn(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	if _, err := d.CreateTable(ctx, schoolsDef()); err != nil {
		t.Fatalf("CreateTable(Schools) failed: %v", err)
	}
	table, err := d.CreateTable(ctx, meta.TableInfo{
		Name:    "Teachers",
		Columns: []meta.Column{{Name: "id", Type: meta.TypeInt, PrimaryKey: true}},
	})
	if err != nil {
		t.Fatalf("CreateTable(Teachers) failed: %v", err)
	}

	fkCol := meta.Column{Name: "school_id", Type: meta.TypeInt, Nullable: true, ForeignKey: &meta.ForeignKeyRef{
		Table: "Schools", Column: "id", OnDelete: meta.SetNull, OnUpdate: meta.NoAction,
	}}
	if _, err := table.AddColumn(ctx, fkCol); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	if err := table.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	col, err := table.Column("school_id")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	fk := col.ForeignKey()
	if fk == nil || fk.Table != "Schools" || fk.Column != "id" {
		t.Errorf("foreign key = %+v", fk)
	}
}

func TestRenameTable(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	if err := table.Rename(ctx, "Academies"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if table.Name() != "Academies" {
		t.Errorf("table.Name() = %q after rename", table.Name())
	}

	// The wrapper is reachable under its new name and gone under the old.
	again, err := d.Table(ctx, "Academies")
	if err != nil {
		t.Fatalf("Table(Academies) failed: %v", err)
	}
	if again != table {
		t.Error("renamed table is a different wrapper")
	}
	if _, err := d.Table(ctx, "Schools"); !errors.Is(err, engine.ErrNoSuchTable) {
		t.Errorf("Table(Schools) after rename error = %v, want ErrNoSuchTable", err)
	}
}

func TestRenameColumn(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	col, err := table.Column("name")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}

	if err := col.Rename(ctx, "title"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if col.Name() != "title" {
		t.Errorf("col.Name() = %q after rename", col.Name())
	}

	if err := table.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := table.Column("name"); err == nil {
		t.Error("old column name still present in engine")
	}
	if _, err := table.Column("title"); err != nil {
		t.Error("new column name missing in engine")
	}
}

func TestRenameColumnCollision(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	col, err := table.Column("name")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}

	if err := col.Rename(ctx, "id"); err == nil {
		t.Fatal("Rename accepted a name that collides with an existing column")
	}
	if col.Name() != "name" {
		t.Errorf("col.Name() = %q after rejected rename", col.Name())
	}
}

func TestSchemaDocument(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	if _, err := d.CreateTable(ctx, schoolsDef()); err != nil {
		t.Fatalf("CreateTable(Schools) failed: %v", err)
	}
	if _, err := d.CreateTable(ctx, studentsDef()); err != nil {
		t.Fatalf("CreateTable(Students) failed: %v", err)
	}

	doc, err := d.Schema(ctx)
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}

	if doc.Type != "sqlite" {
		t.Errorf("doc.Type = %q", doc.Type)
	}
	if len(doc.Tables) != 2 {
		t.Fatalf("len(doc.Tables) = %d, want 2", len(doc.Tables))
	}

	students, ok := doc.Tables["Students"]
	if !ok {
		t.Fatal("doc.Tables missing Students")
	}
	schoolID, ok := students.Columns["school_id"]
	if !ok {
		t.Fatal("Students doc missing school_id")
	}
	if schoolID.ForeignTable != "Schools" || schoolID.ForeignColumn != "id" {
		t.Errorf("school_id references %s(%s)", schoolID.ForeignTable, schoolID.ForeignColumn)
	}
	if schoolID.OnDelete != "CASCADE" {
		t.Errorf("school_id on_delete = %q", schoolID.OnDelete)
	}
	if got := students.UniqueColumns["uq_students_name"]; !reflect.DeepEqual(got, []string{"first_name", "last_name"}) {
		t.Errorf("unique_columns = %v", got)
	}
}

func TestSaveSchemaWritesFile(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	if _, err := d.CreateTable(ctx, schoolsDef()); err != nil {
		t.Fatalf("CreateTable(Schools) failed: %v", err)
	}
	if _, err := d.CreateTable(ctx, studentsDef()); err != nil {
		t.Fatalf("CreateTable(Students) failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "nested", "schema.json")
	if err := d.SaveSchema(ctx, path); err != nil {
		t.Fatalf("SaveSchema failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema file: %v", err)
	}

	var doc meta.DatabaseDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema file is not valid JSON: %v", err)
	}

	// The file reproduces the live document exactly, defaults, foreign
	// keys and unique constraints included.
	want, err := d.Schema(ctx)
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	if !reflect.DeepEqual(doc, *want) {
		t.Errorf("saved schema differs from Schema():\n got %+v\nwant %+v", doc, *want)
	}
}

func TestTableConcurrentAccess(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	names := []string{"Alpha", "Beta", "Gamma", "Delta"}
	for _, name := range names {
		def := meta.TableInfo{
			Name:    name,
			Columns: []meta.Column{{Name: "id", Type: meta.TypeInt, PrimaryKey: true}},
		}
		if _, err := d.CreateTable(ctx, def); err != nil {
			t.Fatalf("CreateTable(%s) failed: %v", name, err)
		}
	}
	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Concurrent lookups of the same tables must neither race on the
	// cache nor hand out more than one wrapper per table.
	got := make([][]*Table, 16)
	var wg sync.WaitGroup
	for g := 0; g < len(got); g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			tables := make([]*Table, len(names))
			for i, name := range names {
				table, err := d.Table(ctx, name)
				if err != nil {
					t.Errorf("Table(%s) failed: %v", name, err)
					return
				}
				tables[i] = table
			}
			got[g] = tables
		}(g)
	}
	wg.Wait()

	for g := 1; g < len(got); g++ {
		for i := range names {
			if got[g] == nil || got[0] == nil {
				continue
			}
			if got[g][i] != got[0][i] {
				t.Fatalf("goroutine %d saw a different wrapper for %s", g, names[i])
			}
		}
	}
}

func TestDisconnectIsTerminal(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	col, err := table.Column("name")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}

	if err := d.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if err := d.Disconnect(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Disconnect error = %v, want ErrClosed", err)
	}
	if _, err := d.Table(ctx, "Schools"); !errors.Is(err, ErrClosed) {
		t.Errorf("Table after disconnect error = %v, want ErrClosed", err)
	}
	if _, err := d.Schema(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Schema after disconnect error = %v, want ErrClosed", err)
	}
	if _, err := table.AddColumn(ctx, meta.Column{Name: "x", Type: meta.TypeInt, Nullable: true}); !errors.Is(err, ErrClosed) {
		t.Errorf("AddColumn after disconnect error = %v, want ErrClosed", err)
	}
	if err := table.Rename(ctx, "y"); !errors.Is(err, ErrClosed) {
		t.Errorf("table Rename after disconnect error = %v, want ErrClosed", err)
	}
	if err := col.Rename(ctx, "z"); !errors.Is(err, ErrClosed) {
		t.Errorf("column Rename after disconnect error = %v, want ErrClosed", err)
	}
}

func TestDropTable(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	if _, err := d.CreateTable(ctx, schoolsDef()); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if err := d.DropTable(ctx, "Schools"); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}
	if _, err := d.Table(ctx, "Schools"); !errors.Is(err, engine.ErrNoSuchTable) {
		t.Errorf("Table after drop error = %v, want ErrNoSuchTable", err)
	}
}

func TestRefreshDiscardsWrappers(t *testing.T) {
	d := openTestDatabase(t)
	ctx := context.Background()

	table, err := d.CreateTable(ctx, schoolsDef())
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	again, err := d.Table(ctx, "Schools")
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if again == table {
		t.Error("Refresh kept the old wrapper")
	}
}

func TestRegistry(t *testing.T) {
	engines := engine.NewRegistry()
	engines.Register(engine.SQLite, func() engine.Engine { return sqlite.New() })
	reg := NewRegistry(engines)

	cfg := engine.Config{Driver: engine.SQLite, Path: ":memory:"}
	if _, err := reg.Open("memdb", cfg, zerolog.Nop()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := reg.Open("memdb", cfg, zerolog.Nop()); err == nil {
		t.Error("Open accepted a duplicate name")
	}

	d, err := reg.Get("memdb")
	if err != nil || d == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(reg.Names(), []string{"memdb"}) {
		t.Errorf("Names() = %v", reg.Names())
	}

	if err := reg.Close("memdb"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := reg.Get("memdb"); err == nil {
		t.Error("Get succeeded after Close")
	}
	if err := reg.Close("memdb"); err == nil {
		t.Error("Close succeeded twice")
	}
}
