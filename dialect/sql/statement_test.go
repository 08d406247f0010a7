package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratadb/strata/schema"
)

var userModel = &schema.Model{
	Table:      "users",
	PrimaryKey: "id",
	Fields: []schema.Field{
		{Name: "id", Type: schema.TypeInt},
		{Name: "email", Type: schema.TypeString},
		{Name: "name", Type: schema.TypeString},
	},
}

func TestBuilderInsert(t *testing.T) {
	t.Parallel()

	t.Run("mysql_excludes_nil_primary_key", func(t *testing.T) {
		b := NewBuilder(&MySQL{})
		st := b.Insert(userModel.New(map[string]any{"email": "a@b.c", "name": "Ada"}), userModel)
		assert.Equal(t, "INSERT INTO `users` (`email`, `name`) VALUES (?, ?)", st.SQL)
		assert.Equal(t, []any{"a@b.c", "Ada"}, st.Args)
	})

	t.Run("explicit_primary_key", func(t *testing.T) {
		b := NewBuilder(&MySQL{})
		st := b.Insert(userModel.New(map[string]any{"id": int64(7), "email": "a@b.c", "name": "Ada"}), userModel)
		assert.Equal(t, "INSERT INTO `users` (`id`, `email`, `name`) VALUES (?, ?, ?)", st.SQL)
		assert.Equal(t, []any{int64(7), "a@b.c", "Ada"}, st.Args)
	})

	t.Run("postgres_appends_returning", func(t *testing.T) {
		b := NewBuilder(&Postgres{})
		st := b.Insert(userModel.New(map[string]any{"email": "a@b.c", "name": "Ada"}), userModel)
		assert.Equal(t, `INSERT INTO "users" ("email", "name") VALUES (?, ?) RETURNING "id"`, st.SQL)
	})
}

func TestBuilderUpdate(t *testing.T) {
	t.Parallel()

	b := NewBuilder(&MySQL{})
	rec := userModel.New(map[string]any{"id": int64(3), "email": "a@b.c", "name": "Ada"})
	st := b.Update(rec, userModel)
	assert.Equal(t,
		"UPDATE `users` SET `id` = ?, `email` = ?, `name` = ? WHERE `users`.`id` = ?",
		st.SQL,
	)
	assert.Equal(t, []any{int64(3), "a@b.c", "Ada", int64(3)}, st.Args,
		"primary key value is bound last for the WHERE clause")
}

func TestBuilderDelete(t *testing.T) {
	t.Parallel()

	b := NewBuilder(&MySQL{})
	rec := userModel.New(map[string]any{"id": int64(3)})
	st := b.Delete(rec, userModel)
	assert.Equal(t, "DELETE FROM `users` WHERE `users`.`id` = ?", st.SQL)
	assert.Equal(t, []any{int64(3)}, st.Args)
}

func TestBuilderDeleteSet(t *testing.T) {
	t.Parallel()

	t.Run("single_collection_argument", func(t *testing.T) {
		b := NewBuilder(&MySQL{})
		st, err := b.DeleteSet([]any{1, 2, 3}, userModel)
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM `users` WHERE `users`.`id` IN (?)", st.SQL)
		require.Len(t, st.Args, 1, "one argument slot holding the whole id list")
		assert.Equal(t, []any{1, 2, 3}, st.Args[0])
	})

	t.Run("empty_set", func(t *testing.T) {
		b := NewBuilder(&MySQL{})
		_, err := b.DeleteSet(nil, userModel)
		assert.ErrorIs(t, err, ErrEmptySet)
	})
}

func TestBuilderFind(t *testing.T) {
	t.Parallel()

	b := NewBuilder(&Postgres{})
	st := b.Find(int64(3), userModel)
	assert.Equal(t,
		`SELECT "id", "email", "name" FROM "users" WHERE "users"."id" = ?`,
		st.SQL,
	)
	assert.Equal(t, []any{int64(3)}, st.Args)
}

func TestQuoting(t *testing.T) {
	t.Parallel()

	t.Run("mysql", func(t *testing.T) {
		a := &MySQL{}
		assert.Equal(t, "`name`", a.QuoteColumn("name"))
		assert.Equal(t, "`users`.`name`", a.QuoteNamespacedColumn("users", "name"))
	})

	t.Run("postgres", func(t *testing.T) {
		a := &Postgres{}
		assert.Equal(t, `"name"`, a.QuoteColumn("name"))
		assert.Equal(t, `"users"."name"`, a.QuoteNamespacedColumn("users", "name"))
	})

	t.Run("escapes_embedded_quote", func(t *testing.T) {
		a := &MySQL{}
		assert.Equal(t, "`weird``name`", a.QuoteColumn("weird`name"))
	})
}
