// Package schema defines the model metadata strata persists records through.
//
// A Model is a static descriptor of a single table: its name, its primary
// key column, and an ordered field list. Records are plain field-name to
// value mappings built from a model, so a model carries everything needed
// to turn a record into an ordered column/value list and back.
//
// # Defining a Model
//
//	var User = &schema.Model{
//	    Table:      "users",
//	    PrimaryKey: "id",
//	    Fields: []schema.Field{
//	        {Name: "id", Type: schema.TypeInt},
//	        {Name: "email", Type: schema.TypeString, Required: true, MaxLen: 255},
//	        {Name: "name", Type: schema.TypeString, Required: true},
//	        {Name: "active", Type: schema.TypeBool},
//	    },
//	}
//
// # Records
//
//	rec := User.New(map[string]any{"email": "a@b.c", "name": "Ada"})
//	rec = rec.Merge(map[string]any{"active": true})
//
// New populates every declared field (applying Default functions where
// set), so a record always carries the model's full field list.
//
// # Validation
//
// Every Model is itself a validator: Validate checks required fields,
// string length bounds, and type conformance, returning human-readable
// reasons on failure.
package schema
