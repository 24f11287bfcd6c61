package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koapa/koapa"
	"github.com/koapa/koapa/internal/testutil"
	"github.com/koapa/koapa/pkg/engine"
)

func TestPostgres_Drivers(t *testing.T) {
	for _, driver := range []string{engine.DriverPgx, engine.DriverPostgres} {
		t.Run(driver, func(t *testing.T) {
			dsn := testutil.PostgresDSN(t)
			ctx := context.Background()

			db, err := engine.Open(ctx, engine.Config{Driver: driver, DSN: dsn})
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			assert.Equal(t, koapa.DialectPostgres, db.Dialect())

			qb := db.NewBuilder()
			_, err = qb.CreateTable("users",
				koapa.ColumnDef{Name: "userid", Type: "SERIAL", PrimaryKey: true},
				koapa.ColumnDef{Name: "username", Type: "TEXT", NotNull: true, Unique: true},
				koapa.ColumnDef{Name: "password", Type: "TEXT", NotNull: true},
			).Execute(ctx)
			require.NoError(t, err)

			for _, name := range []string{"test", "other"} {
				_, err = qb.Insert("users", map[string]any{"username": name, "password": "pw"}).Execute(ctx)
				require.NoError(t, err)
			}

			res, err := qb.Update("users", koapa.Field{Name: "password", Value: "new"}).
				Where(ctx, func(c koapa.Columns) *koapa.ExpressionChain {
					return c.Get("username").Equals("test").And(c.Get("userid")).GreaterThan(0)
				})
			require.NoError(t, err)
			assert.EqualValues(t, 1, res.RowsAffected)

			res, err = qb.Select("users", "username", "password").Where(ctx, func(c koapa.Columns) *koapa.ExpressionChain {
				return c.Get("password").Equals("new")
			})
			require.NoError(t, err)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, "test", res.Rows[0]["username"])

			_, err = qb.Insert("users", map[string]any{"username": "test", "password": "pw"}).Execute(ctx)
			require.Error(t, err)
			assert.True(t, engine.IsConstraintViolation(err))
			assert.Equal(t, "23505", engine.SQLState(err))

			e, ok := koapa.AsError(err)
			require.True(t, ok)
			assert.Equal(t, "23505", e.Details["sqlstate"])
		})
	}
}
