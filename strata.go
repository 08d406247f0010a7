// Package strata is a record persistence engine. It maps records —
// field-name to value mappings described by a schema.Model — to rows in
// a relational database through a pluggable dialect adapter, and runs a
// validator pipeline before any mutating statement is built or executed.
//
// # Repositories
//
//	adapter, err := sql.Connect(ctx, dialect.SQLite, sql.Config{Path: ":memory:"})
//	repo := strata.NewRepo(adapter)
//
//	rec, err := repo.Create(ctx, User, map[string]any{
//	    "email": "ada@example.com",
//	    "name":  "Ada",
//	})
//	// rec["id"] now carries the generated key.
//
// Validation failures never touch the database:
//
//	_, err := repo.Create(ctx, User, map[string]any{})
//	var verr *strata.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Println(verr.Reasons)
//	}
//
// The acting model always participates in validation; additional
// validators are supplied per call with As:
//
//	repo.Create(ctx, User, attrs, strata.As(User, emailUniqueness))
package strata

import (
	"context"

	"github.com/stratadb/strata/schema"
)

// Validator is the validation capability a record can be checked
// against. Validate returns the (possibly transformed) record and the
// failure reasons; an empty reason list means success. Every
// schema.Model is a Validator.
type Validator interface {
	Validate(rec schema.Record) (schema.Record, []string)
}

// ValidatorFunc is an adapter allowing ordinary functions to be used as
// validators.
type ValidatorFunc func(rec schema.Record) (schema.Record, []string)

// Validate calls f(rec).
func (f ValidatorFunc) Validate(rec schema.Record) (schema.Record, []string) {
	return f(rec)
}

// Query is the external query surface strata consumes for bulk
// deletion: it carries a model reference and can be materialized into
// its matching records.
type Query interface {
	// Model returns the model the query targets.
	Model() *schema.Model
	// All materializes the matching records.
	All(ctx context.Context) ([]schema.Record, error)
}

// Option configures a single repository operation.
type Option func(*options)

type options struct {
	validators []Validator
	model      *schema.Model
	attrs      map[string]any
}

// As sets the validator list for the operation. The acting model is
// ensured present even when not listed; order is preserved and
// duplicates are allowed.
func As(validators ...Validator) Option {
	return func(o *options) {
		o.validators = validators
	}
}

// ForModel overrides which model's table and keys the operation targets.
func ForModel(m *schema.Model) Option {
	return func(o *options) {
		o.model = m
	}
}

// Attrs merges the given attributes onto the record before validation.
func Attrs(attrs map[string]any) Option {
	return func(o *options) {
		o.attrs = attrs
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// resolveValidators returns the operation's validator list with the
// acting model guaranteed to participate.
func resolveValidators(m *schema.Model, o options) []Validator {
	if len(o.validators) == 0 {
		return []Validator{m}
	}
	for _, v := range o.validators {
		if v == Validator(m) {
			return o.validators
		}
	}
	return append([]Validator{m}, o.validators...)
}
