package subject

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kbukum/flowkit/database"
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

var people = schema.MustNew(schema.Integer("id", schema.Required()), schema.String("name"))

func peopleTable() *table.Table {
	return table.MustFromRows([]string{"id", "name"}, [][]any{
		{int64(1), "one"},
		{int64(2), "two"},
	})
}

func TestTabularLinkSharesPayload(t *testing.T) {
	ctx := context.Background()
	up := NewTabular("main", "a", people)
	up.SetPayload(peopleTable())
	down := NewTabular("main", "b", people)

	if err := down.LinkFrom(ctx, up); err != nil {
		t.Fatalf("link: %v", err)
	}
	if down.Payload() != up.Payload() {
		t.Fatal("expected the payload reference to be shared")
	}
}

func TestTabularIsolatedLinkClones(t *testing.T) {
	ctx := context.Background()
	up := NewTabular("main", "a", people)
	up.SetPayload(peopleTable())
	down := NewTabular("main", "b", people, Isolated())

	if err := down.LinkFrom(ctx, up); err != nil {
		t.Fatalf("link: %v", err)
	}
	if down.Payload() == up.Payload() {
		t.Fatal("isolated subject must not share the payload")
	}
	down.Payload().Set(0, "name", "changed")
	if up.Payload().Value(0, "name") != "one" {
		t.Error("mutation leaked to the upstream payload")
	}
}

func TestTabularLinkWithoutPayload(t *testing.T) {
	up := NewTabular("main", "a", nil)
	down := NewTabular("main", "b", people)
	if err := down.LinkFrom(context.Background(), up); err != nil {
		t.Fatalf("link: %v", err)
	}
	if !down.HasPayload() || down.Payload().Len() != 0 {
		t.Fatal("expected an empty payload")
	}
	if !slices.Equal(down.Payload().Columns(), []string{"id", "name"}) {
		t.Errorf("expected schema columns, got %v", down.Payload().Columns())
	}
}

func TestLinkMissingFields(t *testing.T) {
	up := NewTabular("main", "a", schema.MustNew(schema.String("name")))
	down := NewTabular("main", "b", people)

	err := down.LinkFrom(context.Background(), up)
	if !apperrors.HasCode(err, apperrors.ErrCodeMissingFields) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["pipe"] != "b" || appErr.Details["from"] != "a.main" {
		t.Errorf("unexpected details %v", appErr.Details)
	}
}

func TestTabularToTableDefaultsEmpty(t *testing.T) {
	s := NewTabular("main", "a", people)
	got, err := s.ToTable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 0 || !got.Has("id") {
		t.Fatalf("expected empty table with schema columns, got %v", got.Columns())
	}
	if s.HasPayload() {
		t.Error("reading should not install a payload")
	}
}

func openEngine(t *testing.T) *database.Engine {
	t.Helper()
	eng, err := database.Open(context.Background(), database.Config{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "subjects.db"),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return eng
}

func TestSQLLinkAdoptsEngine(t *testing.T) {
	ctx := context.Background()
	first, second := openEngine(t), openEngine(t)

	up := NewSQL("main", "a", people, second, "")
	down := NewSQL("main", "b", people, first, "")
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := up.FromTable(ctx, peopleTable()); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := down.LinkFrom(ctx, up); err != nil {
		t.Fatalf("link: %v", err)
	}
	if !first.Closed() {
		t.Error("the engine given up by the link should close")
	}
	if down.Engine() != second || second.Refs() != 2 {
		t.Fatalf("expected shared engine with 2 refs, got %d", second.Refs())
	}
	if down.Table() != "a_main" {
		t.Errorf("expected adopted table a_main, got %s", down.Table())
	}

	got, err := down.ToTable(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Equal(peopleTable()) {
		t.Fatalf("unexpected table:\n%s", got)
	}

	if err := up.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if second.Closed() {
		t.Fatal("engine must stay open while a subject holds it")
	}
	if err := down.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !second.Closed() {
		t.Error("engine should close with its last holder")
	}
}

func TestSQLLinkRequiresOpenEngine(t *testing.T) {
	ctx := context.Background()
	eng := openEngine(t)
	defer eng.Release()

	up := NewSQL("main", "a", people, eng, "")
	down := NewSQL("main", "b", people, eng, "")
	defer down.Close()
	if err := up.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	err := down.LinkFrom(ctx, up)
	if !apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
		t.Fatalf("expected configuration error linking from a closed subject, got %v", err)
	}
	if down.Engine() != eng || down.Table() != "b_main" {
		t.Error("a failed link must leave the subject unchanged")
	}

	detached := NewSQL("main", "c", people, nil, "")
	if detached.HasPayload() {
		t.Error("a subject without engine has no payload")
	}
	if got, err := detached.ToTable(ctx); err != nil || got.Len() != 0 {
		t.Fatalf("expected empty table, got %v (%v)", got, err)
	}
	if err := detached.FromTable(ctx, peopleTable()); !apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
		t.Fatalf("expected configuration error writing without engine, got %v", err)
	}
	if err := detached.LinkFrom(ctx, down); err != nil {
		t.Fatalf("link: %v", err)
	}
	if detached.Engine() != eng {
		t.Error("expected detached subject to adopt the upstream engine")
	}
	if err := detached.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestHeterogeneousLinksMaterialize(t *testing.T) {
	ctx := context.Background()
	eng := openEngine(t)
	defer eng.Release()

	mem := NewTabular("main", "a", people)
	mem.SetPayload(peopleTable())

	stored := NewSQL("main", "b", people, eng, "")
	defer stored.Close()
	if err := stored.LinkFrom(ctx, mem); err != nil {
		t.Fatalf("tabular to sql: %v", err)
	}

	session := NewMemorySession()
	frame := NewCluster("main", "c", people, session)
	if err := frame.LinkFrom(ctx, stored); err != nil {
		t.Fatalf("sql to cluster: %v", err)
	}

	back := NewTabular("main", "d", people)
	if err := back.LinkFrom(ctx, frame); err != nil {
		t.Fatalf("cluster to tabular: %v", err)
	}
	if !back.Payload().Equal(peopleTable()) {
		t.Fatalf("payload lost across variants:\n%s", back.Payload())
	}
}

func TestClusterLinkPropagatesSession(t *testing.T) {
	ctx := context.Background()
	session := NewMemorySession()
	up := NewCluster("main", "a", people, session)
	if err := up.FromTable(ctx, peopleTable()); err != nil {
		t.Fatalf("store: %v", err)
	}

	down := NewCluster("main", "b", people, NewMemorySession())
	if err := down.LinkFrom(ctx, up); err != nil {
		t.Fatalf("link: %v", err)
	}
	if down.Session().ID() != session.ID() || down.Frame() != "a.main" {
		t.Fatalf("expected session %s frame a.main, got %s %s", session.ID(), down.Session().ID(), down.Frame())
	}
	if !down.HasPayload() {
		t.Error("linked subject should see the upstream frame")
	}
}

func TestPorts(t *testing.T) {
	ports := NewPorts("source")
	if err := ports.Add(NewTabular("main", "p", nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ports.Add(NewTabular("lookup", "p", nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := ports.Add(NewTabular("main", "p", nil))
	if !apperrors.HasCode(err, apperrors.ErrCodePortExists) {
		t.Fatalf("expected port exists error, got %v", err)
	}
	if !slices.Equal(ports.Names(), []string{"main", "lookup"}) {
		t.Errorf("unexpected order %v", ports.Names())
	}

	ports.SetOwner("q")
	for _, s := range ports.All() {
		if s.Owner() != "q" {
			t.Errorf("subject %s not rebound", s.Name())
		}
	}
	if err := ports.Replace(NewTabular("other", "q", nil)); err == nil {
		t.Error("replacing an undeclared port should fail")
	}
}

func TestFactories(t *testing.T) {
	s := TabularFactory()("main", "p", people)
	if s.Variant() != VariantTabular || s.Owner() != "p" || !s.Schema().Equal(people) {
		t.Fatalf("unexpected subject %#v", s)
	}
	c := ClusterFactory(NewMemorySession())("main", "p", nil)
	if c.Variant() != VariantCluster || !c.Schema().IsEmpty() {
		t.Fatalf("unexpected cluster subject %#v", c)
	}
}
