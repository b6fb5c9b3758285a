package pipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/table"
)

const etlDefinition = `
name: etl
sources:
  - name: main
    schema:
      id: integer
targets:
  - name: main
children:
  - name: upper
    component: passthrough
connections:
  - from: self.main
    to: upper.main
    group: load
  - from: upper.main
    to: self.main
`

func passthrough() Flower {
	f := NewFunc("passthrough", func(ctx context.Context, p *Pipe) error {
		in, err := p.Source("main").ToTable(ctx)
		if err != nil {
			return err
		}
		return p.Target("main").FromTable(ctx, in)
	})
	f.MustAddSource("main", nil)
	f.MustAddTarget("main", nil)
	return f
}

func TestBuildDefinition(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	reg.Register("passthrough", passthrough)

	def, err := ParseDefinition([]byte(etlDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := Build(def, reg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.Name() != "etl" || c.Child("upper") == nil {
		t.Fatal("expected child upper under etl")
	}
	if !c.Source("main").Schema().Has("id") {
		t.Error("source schema should come from the definition")
	}
	if got := c.ConnectionsInGroup("load"); len(got) != 1 {
		t.Errorf("expected one connection in group load, got %d", len(got))
	}

	in := table.MustFromRows([]string{"id"}, [][]any{{int64(1)}, {int64(2)}})
	if err := c.Source("main").FromTable(ctx, in); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := c.Flow(ctx); err != nil {
		t.Fatalf("flow: %v", err)
	}
	out, err := c.Target("main").ToTable(ctx)
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if !out.Equal(in) {
		t.Errorf("expected input to pass through, got %v", out.Rows())
	}
}

func TestBuildUnknownComponent(t *testing.T) {
	def, err := ParseDefinition([]byte(etlDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Build(def, NewRegistry())
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParseDefinitionRequiresName(t *testing.T) {
	if _, err := ParseDefinition([]byte("children: []\n")); err == nil {
		t.Fatal("expected a validation error for a missing name")
	}
}

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.yaml")
	if err := os.WriteFile(path, []byte(etlDefinition), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(def.Children) != 1 || def.Connections[0].Group != "load" {
		t.Errorf("unexpected definition %+v", def)
	}
	if _, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
