package strata

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sqld "github.com/stratadb/strata/dialect/sql"
	"github.com/stratadb/strata/schema"
)

// Repo is the persistence façade. It orchestrates attribute merging, the
// validation pipeline, statement building, and adapter execution, and
// reconciles generated keys back onto records. The adapter is an
// explicit dependency supplied at construction; a Repo holds no global
// state and is safe for concurrent use.
//
// A Repo never wraps validation and execution in a transaction:
// validation failures never touch the connection, and a statement
// failure after successful validation is surfaced as-is. Callers needing
// multi-statement atomicity manage a transaction externally.
type Repo struct {
	adapter  sqld.Adapter
	builder  *sqld.Builder
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// RepoOption configures a Repo.
type RepoOption func(*Repo)

// WithCache equips the repository with a record cache. Find reads
// through it; every mutation invalidates the affected table's prefix.
func WithCache(c Cache, ttl time.Duration) RepoOption {
	return func(r *Repo) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithLogger sets the logger for repository operations.
func WithLogger(l *slog.Logger) RepoOption {
	return func(r *Repo) {
		r.log = l
	}
}

// NewRepo returns a repository persisting through the given adapter.
func NewRepo(adapter sqld.Adapter, opts ...RepoOption) *Repo {
	r := &Repo{
		adapter: adapter,
		builder: sqld.NewBuilder(adapter),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Adapter returns the repository's adapter.
func (r *Repo) Adapter() sqld.Adapter { return r.adapter }

// Persisted reports whether the record has been saved: true iff the
// model's primary key field is non-nil.
func (r *Repo) Persisted(rec schema.Record, m *schema.Model) bool {
	return m.PrimaryKeyValue(rec) != nil
}

// Create builds a record from the attributes (an existing record passes
// through unchanged field-wise), validates it, and inserts it. The
// generated key reported by the adapter is reconciled onto the returned
// record's primary key field. On validation failure the new record is
// returned unsaved together with the reasons, and the adapter is never
// called.
func (r *Repo) Create(ctx context.Context, m *schema.Model, attrs map[string]any, opts ...Option) (schema.Record, error) {
	o := buildOptions(opts)
	model := resolveModel(m, o)
	rec := model.New(attrs)
	if o.attrs != nil {
		rec = rec.Merge(o.attrs)
	}
	rec, reasons := Validate(rec, resolveValidators(model, o))
	if len(reasons) > 0 {
		return rec, NewValidationError(rec, reasons)
	}
	st := r.builder.Insert(rec, model)
	res, err := r.adapter.Insert(ctx, st.SQL, st.Args, model.PrimaryKey)
	if err != nil {
		return rec, NewAdapterError("create", err)
	}
	if key := res.GeneratedKey(); key != nil && model.PrimaryKeyValue(rec) == nil {
		rec = rec.Clone()
		rec[model.PrimaryKey] = coerceKey(model, key)
	}
	r.invalidate(ctx, model)
	r.log.Debug("record created", "table", model.Table, "id", model.PrimaryKeyValue(rec))
	return rec, nil
}

// Update merges any attributes given via Attrs onto the record,
// validates, and executes an UPDATE-by-key. The attribute-merged record
// is returned on success.
func (r *Repo) Update(ctx context.Context, m *schema.Model, rec schema.Record, opts ...Option) (schema.Record, error) {
	o := buildOptions(opts)
	model := resolveModel(m, o)
	if o.attrs != nil {
		rec = rec.Merge(o.attrs)
	}
	rec, reasons := Validate(rec, resolveValidators(model, o))
	if len(reasons) > 0 {
		return rec, NewValidationError(rec, reasons)
	}
	st := r.builder.Update(rec, model)
	if _, err := r.adapter.Exec(ctx, st.SQL, st.Args); err != nil {
		return rec, NewAdapterError("update", err)
	}
	r.invalidate(ctx, model)
	r.log.Debug("record updated", "table", model.Table, "id", model.PrimaryKeyValue(rec))
	return rec, nil
}

// Destroy validates the record, executes a single-record DELETE, and
// returns the record with its primary key cleared. Destroying a record
// that was never persisted (or was already destroyed) returns
// ErrNotPersisted without touching the database.
func (r *Repo) Destroy(ctx context.Context, m *schema.Model, rec schema.Record, opts ...Option) (schema.Record, error) {
	o := buildOptions(opts)
	model := resolveModel(m, o)
	if model.PrimaryKeyValue(rec) == nil {
		return rec, ErrNotPersisted
	}
	rec, reasons := Validate(rec, resolveValidators(model, o))
	if len(reasons) > 0 {
		return rec, NewValidationError(rec, reasons)
	}
	st := r.builder.Delete(rec, model)
	if _, err := r.adapter.Exec(ctx, st.SQL, st.Args); err != nil {
		return rec, NewAdapterError("destroy", err)
	}
	rec = rec.Clone()
	rec[model.PrimaryKey] = nil
	r.invalidate(ctx, model)
	r.log.Debug("record destroyed", "table", model.Table)
	return rec, nil
}

// DestroyAll deletes the given records with a single set-based DELETE.
// No validation pipeline runs for bulk deletion; this is an explicit
// design choice, bulk paths trade per-record checks for one round trip.
// Records without a primary key are skipped; an empty id set is a no-op
// success. The model must be supplied: record lists may be empty and
// records carry no model reference. It returns the number of deleted
// rows as reported by the database.
func (r *Repo) DestroyAll(ctx context.Context, m *schema.Model, records []schema.Record) (int64, error) {
	if m == nil {
		return 0, ErrNoModel
	}
	ids := make([]any, 0, len(records))
	for _, rec := range records {
		if id := m.PrimaryKeyValue(rec); id != nil {
			ids = append(ids, id)
		}
	}
	st, err := r.builder.DeleteSet(ids, m)
	if errors.Is(err, sqld.ErrEmptySet) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	res, err := r.adapter.Exec(ctx, st.SQL, st.Args)
	if err != nil {
		return 0, NewAdapterError("destroy_all", err)
	}
	r.invalidate(ctx, m)
	r.log.Debug("records destroyed", "table", m.Table, "count", res.Affected.Int64)
	return res.Affected.Int64, nil
}

// DestroyAllQuery materializes the query's matching records and deletes
// them with a single set-based DELETE.
func (r *Repo) DestroyAllQuery(ctx context.Context, q Query) (int64, error) {
	records, err := q.All(ctx)
	if err != nil {
		return 0, NewAdapterError("destroy_all", err)
	}
	return r.DestroyAll(ctx, q.Model(), records)
}

// Find fetches a single record by primary key, reading through the
// configured cache when one is present.
func (r *Repo) Find(ctx context.Context, m *schema.Model, id any) (schema.Record, error) {
	key := RecordCacheKey(m.Table, id)
	if r.cache != nil {
		data, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn("cache get failed", "key", key, "err", err)
		} else if data != nil {
			rec, err := DecodeRecord(m, data)
			if err == nil {
				return rec, nil
			}
			r.log.Warn("cache decode failed", "key", key, "err", err)
		}
	}
	st := r.builder.Find(id, m)
	res, err := r.adapter.Select(ctx, st.SQL, st.Args)
	if err != nil {
		return nil, NewAdapterError("find", err)
	}
	if len(res.Rows) == 0 {
		return nil, &NotFoundError{table: m.Table, id: id}
	}
	rec, err := m.FromRow(res.Columns, res.Rows[0])
	if err != nil {
		return nil, NewAdapterError("find", err)
	}
	if r.cache != nil {
		if data, err := EncodeRecord(rec); err == nil {
			if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
				r.log.Warn("cache set failed", "key", key, "err", err)
			}
		}
	}
	return rec, nil
}

// invalidate drops every cached record of the model's table.
func (r *Repo) invalidate(ctx context.Context, m *schema.Model) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeletePrefix(ctx, m.Table+":"); err != nil {
		r.log.Warn("cache invalidation failed", "table", m.Table, "err", err)
	}
}

func resolveModel(m *schema.Model, o options) *schema.Model {
	if o.model != nil {
		return o.model
	}
	return m
}

// coerceKey converts a generated key into the primary key's declared
// type; drivers report generated keys as int64 regardless of the model.
func coerceKey(m *schema.Model, key any) any {
	if f, ok := m.Field(m.PrimaryKey); ok {
		if v, err := schema.Coerce(f.Type, key); err == nil {
			return v
		}
	}
	return key
}
