package engine

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/tablekit/tablekit/internal/meta"
)

// stubEngine implements Engine with no-ops for registry tests. The unused
// field keeps the struct nonzero-sized so distinct allocations have distinct
// addresses and instance-identity comparisons are meaningful.
type stubEngine struct{ _ byte }

func (s *stubEngine) Connect(_ Config) error                         { return nil }
func (s *stubEngine) Disconnect() error                              { return nil }
func (s *stubEngine) Ping(_ context.Context) error                   { return nil }
func (s *stubEngine) DB() *sqlx.DB                                   { return nil }
func (s *stubEngine) TableNames(_ context.Context) ([]string, error) { return nil, nil }
func (s *stubEngine) IntrospectTable(_ context.Context, _ string) (*meta.TableInfo, error) {
	return nil, nil
}
func (s *stubEngine) CreateTable(_ context.Context, _ meta.TableInfo) error { return nil }
func (s *stubEngine) AddColumn(_ context.Context, _ string, _ meta.Column) error {
	return nil
}
func (s *stubEngine) RenameTable(_ context.Context, _, _ string) error     { return nil }
func (s *stubEngine) RenameColumn(_ context.Context, _, _, _ string) error { return nil }
func (s *stubEngine) DropTable(_ context.Context, _ string) error          { return nil }
func (s *stubEngine) DriverName() string                                   { return "stub" }
func (s *stubEngine) QuoteIdentifier(name string) string                   { return name }
func (s *stubEngine) ColumnTypeSQL(_ meta.Column) string                   { return "" }

func TestRegistryNew(t *testing.T) {
	r := NewRegistry()
	r.Register(SQLite, func() Engine { return &stubEngine{} })

	eng, err := r.New(SQLite)
	if err != nil {
		t.Fatalf("New(sqlite) failed: %v", err)
	}
	if eng == nil {
		t.Fatal("New(sqlite) returned nil engine")
	}
}

func TestRegistryNewUnknownDriver(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New(Postgres); err == nil {
		t.Error("New() succeeded for an unregistered driver")
	}
}

func TestRegistryFactoryReturnsFreshInstances(t *testing.T) {
	r := NewRegistry()
	r.Register(SQLite, func() Engine { return &stubEngine{} })

	a, _ := r.New(SQLite)
	b, _ := r.New(SQLite)
	if a == b {
		t.Error("New() returned the same engine instance twice")
	}
}

func TestRegistryDrivers(t *testing.T) {
	r := NewRegistry()
	r.Register(SQLite, func() Engine { return &stubEngine{} })
	r.Register(Postgres, func() Engine { return &stubEngine{} })

	drivers := r.Drivers()
	if len(drivers) != 2 {
		t.Fatalf("Drivers() returned %d drivers, want 2", len(drivers))
	}
}
