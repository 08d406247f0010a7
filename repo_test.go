package strata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratadb/strata/dialect"
	sqld "github.com/stratadb/strata/dialect/sql"
	"github.com/stratadb/strata/schema"
)

func userModel() *schema.Model {
	return &schema.Model{
		Table:      "users",
		PrimaryKey: "id",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInt},
			{Name: "email", Type: schema.TypeString, Required: true},
			{Name: "name", Type: schema.TypeString, MaxLen: 32},
		},
	}
}

type adapterCall struct {
	method string
	query  string
	args   []any
	pk     string
}

// spyAdapter records every statement reaching the adapter. Quoting and
// insert skeletons are borrowed from the mysql adapter so built SQL is
// asserted verbatim.
type spyAdapter struct {
	*sqld.MySQL
	calls     []adapterCall
	insertRes *sqld.Result
	execRes   *sqld.Result
	selectRes *sqld.Result
	err       error
}

func newSpyAdapter() *spyAdapter {
	return &spyAdapter{
		MySQL:     &sqld.MySQL{},
		insertRes: &sqld.Result{Affected: sqld.NullInt64{Int64: 1, Valid: true}},
		execRes:   &sqld.Result{Affected: sqld.NullInt64{Int64: 1, Valid: true}},
		selectRes: &sqld.Result{},
	}
}

func (s *spyAdapter) Dialect() string { return dialect.MySQL }
func (s *spyAdapter) Close() error    { return nil }

func (s *spyAdapter) Query(_ context.Context, query string) (*sqld.Result, error) {
	s.calls = append(s.calls, adapterCall{method: "query", query: query})
	return s.selectRes, s.err
}

func (s *spyAdapter) Select(_ context.Context, query string, args []any) (*sqld.Result, error) {
	s.calls = append(s.calls, adapterCall{method: "select", query: query, args: args})
	if s.err != nil {
		return nil, s.err
	}
	return s.selectRes, nil
}

func (s *spyAdapter) Exec(_ context.Context, query string, args []any) (*sqld.Result, error) {
	s.calls = append(s.calls, adapterCall{method: "exec", query: query, args: args})
	if s.err != nil {
		return nil, s.err
	}
	return s.execRes, nil
}

func (s *spyAdapter) Insert(_ context.Context, query string, args []any, pk string) (*sqld.Result, error) {
	s.calls = append(s.calls, adapterCall{method: "insert", query: query, args: args, pk: pk})
	if s.err != nil {
		return nil, s.err
	}
	return s.insertRes, nil
}

var _ sqld.Adapter = (*spyAdapter)(nil)

func TestRepoCreate(t *testing.T) {
	spy := newSpyAdapter()
	spy.insertRes = &sqld.Result{
		Affected: sqld.NullInt64{Int64: 1, Valid: true},
		Columns:  []string{"id"},
		Rows:     [][]any{{int64(7)}},
	}
	repo := NewRepo(spy)

	rec, err := repo.Create(context.Background(), userModel(), map[string]any{
		"email": "ada@example.com",
		"name":  "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec["id"])
	assert.Equal(t, "ada@example.com", rec["email"])

	require.Len(t, spy.calls, 1)
	call := spy.calls[0]
	assert.Equal(t, "insert", call.method)
	assert.Equal(t, "INSERT INTO `users` (`email`, `name`) VALUES (?, ?)", call.query)
	assert.Equal(t, []any{"ada@example.com", "Ada"}, call.args)
	assert.Equal(t, "id", call.pk)
}

func TestRepoCreateExplicitKey(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	rec, err := repo.Create(context.Background(), userModel(), map[string]any{
		"id":    int64(3),
		"email": "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec["id"])

	require.Len(t, spy.calls, 1)
	call := spy.calls[0]
	assert.Equal(t, "INSERT INTO `users` (`id`, `email`, `name`) VALUES (?, ?, ?)", call.query)
	assert.Equal(t, []any{int64(3), "ada@example.com", nil}, call.args)
}

func TestRepoCreateValidationFailure(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	rec, err := repo.Create(context.Background(), userModel(), map[string]any{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email is required"}, verr.Reasons)
	assert.Nil(t, rec["email"])
	assert.Empty(t, spy.calls, "validation failure must not reach the adapter")
}

func TestRepoCreateAdapterError(t *testing.T) {
	spy := newSpyAdapter()
	spy.err = errors.New("connection reset")
	repo := NewRepo(spy)

	_, err := repo.Create(context.Background(), userModel(), map[string]any{
		"email": "ada@example.com",
	})
	require.Error(t, err)
	assert.True(t, IsAdapterError(err))

	var aerr *AdapterError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "create", aerr.Op)
	assert.Equal(t, spy.err, errors.Unwrap(err))
}

func TestRepoCreateExtraValidator(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	lower := ValidatorFunc(func(r schema.Record) (schema.Record, []string) {
		return r, []string{"email is taken"}
	})
	_, err := repo.Create(context.Background(), userModel(), map[string]any{}, As(lower))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email is taken", "email is required"}, verr.Reasons)
	assert.Empty(t, spy.calls)
}

func TestRepoUpdate(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	rec := schema.Record{"id": int64(1), "email": "ada@example.com", "name": "Ada"}
	out, err := repo.Update(context.Background(), userModel(), rec, Attrs(map[string]any{"name": "Grace"}))
	require.NoError(t, err)
	assert.Equal(t, "Grace", out["name"])
	assert.Equal(t, "Ada", rec["name"], "input record stays untouched")

	require.Len(t, spy.calls, 1)
	call := spy.calls[0]
	assert.Equal(t, "exec", call.method)
	assert.Equal(t, "UPDATE `users` SET `id` = ?, `email` = ?, `name` = ? WHERE `users`.`id` = ?", call.query)
	assert.Equal(t, []any{int64(1), "ada@example.com", "Grace", int64(1)}, call.args)
}

func TestRepoUpdateValidationFailure(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	rec := schema.Record{"id": int64(1), "email": "", "name": "Ada"}
	_, err := repo.Update(context.Background(), userModel(), rec)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, spy.calls)
}

func TestRepoDestroy(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)
	m := userModel()

	rec := schema.Record{"id": int64(1), "email": "ada@example.com", "name": "Ada"}
	out, err := repo.Destroy(context.Background(), m, rec)
	require.NoError(t, err)
	assert.Nil(t, out["id"])
	assert.False(t, repo.Persisted(out, m))

	require.Len(t, spy.calls, 1)
	call := spy.calls[0]
	assert.Equal(t, "DELETE FROM `users` WHERE `users`.`id` = ?", call.query)
	assert.Equal(t, []any{int64(1)}, call.args)

	// Destroying the returned record again is rejected before the
	// adapter is reached.
	_, err = repo.Destroy(context.Background(), m, out)
	assert.ErrorIs(t, err, ErrNotPersisted)
	assert.Len(t, spy.calls, 1)
}

func TestRepoDestroyAll(t *testing.T) {
	spy := newSpyAdapter()
	spy.execRes = &sqld.Result{Affected: sqld.NullInt64{Int64: 3, Valid: true}}
	repo := NewRepo(spy)

	records := []schema.Record{
		{"id": int64(1)},
		{"id": int64(2)},
		{"email": "never@saved.example"},
		{"id": int64(3)},
	}
	n, err := repo.DestroyAll(context.Background(), userModel(), records)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.Len(t, spy.calls, 1, "one statement for the whole set")
	call := spy.calls[0]
	assert.Equal(t, "DELETE FROM `users` WHERE `users`.`id` IN (?)", call.query)
	assert.Equal(t, []any{[]any{int64(1), int64(2), int64(3)}}, call.args)
}

func TestRepoDestroyAllEmpty(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	n, err := repo.DestroyAll(context.Background(), userModel(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, spy.calls)

	// All records unsaved behaves like the empty list.
	n, err = repo.DestroyAll(context.Background(), userModel(), []schema.Record{{"email": "x"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, spy.calls)

	_, err = repo.DestroyAll(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoModel)
}

type staticQuery struct {
	model   *schema.Model
	records []schema.Record
	err     error
}

func (q staticQuery) Model() *schema.Model { return q.model }

func (q staticQuery) All(context.Context) ([]schema.Record, error) {
	return q.records, q.err
}

func TestRepoDestroyAllQuery(t *testing.T) {
	spy := newSpyAdapter()
	spy.execRes = &sqld.Result{Affected: sqld.NullInt64{Int64: 2, Valid: true}}
	repo := NewRepo(spy)

	q := staticQuery{
		model:   userModel(),
		records: []schema.Record{{"id": int64(4)}, {"id": int64(5)}},
	}
	n, err := repo.DestroyAllQuery(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, spy.calls, 1)
	assert.Equal(t, []any{[]any{int64(4), int64(5)}}, spy.calls[0].args)
}

func TestRepoDestroyAllQueryError(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	q := staticQuery{model: userModel(), err: errors.New("timeout")}
	_, err := repo.DestroyAllQuery(context.Background(), q)
	assert.True(t, IsAdapterError(err))
	assert.Empty(t, spy.calls)
}

func TestRepoFind(t *testing.T) {
	spy := newSpyAdapter()
	spy.selectRes = &sqld.Result{
		Columns: []string{"id", "email", "name"},
		Rows:    [][]any{{int64(1), "ada@example.com", "Ada"}},
	}
	repo := NewRepo(spy)

	rec, err := repo.Find(context.Background(), userModel(), int64(1))
	require.NoError(t, err)
	assert.Equal(t, schema.Record{"id": int64(1), "email": "ada@example.com", "name": "Ada"}, rec)

	require.Len(t, spy.calls, 1)
	call := spy.calls[0]
	assert.Equal(t, "select", call.method)
	assert.Equal(t, "SELECT `id`, `email`, `name` FROM `users` WHERE `users`.`id` = ?", call.query)
	assert.Equal(t, []any{int64(1)}, call.args)
}

func TestRepoFindNotFound(t *testing.T) {
	spy := newSpyAdapter()
	repo := NewRepo(spy)

	_, err := repo.Find(context.Background(), userModel(), int64(404))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "users")
}

func TestRepoFindCached(t *testing.T) {
	spy := newSpyAdapter()
	spy.selectRes = &sqld.Result{
		Columns: []string{"id", "email", "name"},
		Rows:    [][]any{{int64(1), "ada@example.com", "Ada"}},
	}
	repo := NewRepo(spy, WithCache(NewMemoryCache(), time.Minute))
	m := userModel()
	ctx := context.Background()

	first, err := repo.Find(ctx, m, int64(1))
	require.NoError(t, err)
	require.Len(t, spy.calls, 1)

	second, err := repo.Find(ctx, m, int64(1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, spy.calls, 1, "second lookup served from cache")

	// A mutation on the table invalidates the cached record.
	_, err = repo.Update(ctx, m, first, Attrs(map[string]any{"name": "Grace"}))
	require.NoError(t, err)

	_, err = repo.Find(ctx, m, int64(1))
	require.NoError(t, err)
	assert.Len(t, spy.calls, 3)
}

func TestRepoPersisted(t *testing.T) {
	repo := NewRepo(newSpyAdapter())
	m := userModel()
	assert.False(t, repo.Persisted(schema.Record{"email": "x"}, m))
	assert.True(t, repo.Persisted(schema.Record{"id": int64(9)}, m))
}
