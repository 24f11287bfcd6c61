package api

import (
	"log/slog"
	"net/http"

	"github.com/koapa/koapa"
)

// UsersTable is the table the demo routes work on.
const UsersTable = "users"

// UsersColumns is the schema CreateUsersTable creates.
var UsersColumns = []koapa.ColumnDef{
	{Name: "userid", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true, NotNull: true},
	{Name: "username", Type: "TEXT", NotNull: true, Unique: true},
	{Name: "password", Type: "TEXT", NotNull: true},
	{Name: "email", Type: "TEXT", NotNull: true},
}

// Routes registers the demo routes on mux:
//
//	GET /                       hello world
//	GET /create-users-table     create the users table
//	GET /create-user            ?username=&password=&email=
//	GET /select-all-from-users  every user
//	GET /where-clause           ?username= (default "test")
//	GET /update-user            ?username=&password=
//	GET /delete-user            ?username=
func Routes(mux *http.ServeMux, factory BuilderFactory, logger *slog.Logger) {
	routes := map[string]Controller{
		"GET /{$}":                   ControllerFunc(HelloWorld),
		"GET /create-users-table":    ControllerFunc(CreateUsersTable),
		"GET /create-user":           ControllerFunc(CreateUser),
		"GET /select-all-from-users": ControllerFunc(SelectAllFromUsers),
		"GET /where-clause":          ControllerFunc(WhereClause),
		"GET /update-user":           ControllerFunc(UpdateUser),
		"GET /delete-user":           ControllerFunc(DeleteUser),
	}
	for pattern, ctrl := range routes {
		mux.Handle(pattern, Handler(ctrl, factory, logger))
	}
}

// data wraps a statement result the way every demo route answers.
func data(c *Context, res *koapa.Result) error {
	return c.Respond(map[string]any{"data": res, "status": http.StatusOK}, http.StatusOK)
}

// HelloWorld answers {"message": "Hello World"}.
func HelloWorld(c *Context) error {
	return c.Respond(map[string]any{"message": "Hello World"}, http.StatusOK)
}

// CreateUsersTable creates the users table.
func CreateUsersTable(c *Context) error {
	res, err := c.Database().CreateTable(UsersTable, UsersColumns...).Execute(c.Context())
	if err != nil {
		return err
	}
	return data(c, res)
}

// CreateUser inserts a user from the username, password and email parameters.
func CreateUser(c *Context) error {
	p, err := requireParams(c, "username", "password", "email")
	if err != nil {
		return err
	}
	res, err := c.Database().Insert(UsersTable, map[string]any{
		"username": p["username"],
		"password": p["password"],
		"email":    p["email"],
	}).Execute(c.Context())
	if err != nil {
		return err
	}
	return data(c, res)
}

// SelectAllFromUsers returns every user.
func SelectAllFromUsers(c *Context) error {
	res, err := c.Database().Select(UsersTable, "*").Execute(c.Context())
	if err != nil {
		return err
	}
	return data(c, res)
}

// WhereClause returns the users whose name matches the username parameter.
func WhereClause(c *Context) error {
	username := c.Query("username")
	if username == "" {
		username = "test"
	}
	res, err := c.Database().Select(UsersTable, "*").
		Where(c.Context(), func(cols koapa.Columns) *koapa.ExpressionChain {
			return cols.Get("username").Equals(username)
		})
	if err != nil {
		return err
	}
	return data(c, res)
}

// UpdateUser sets the password of the user named by the username parameter.
func UpdateUser(c *Context) error {
	p, err := requireParams(c, "username", "password")
	if err != nil {
		return err
	}
	res, err := c.Database().Update(UsersTable, koapa.Field{Name: "password", Value: p["password"]}).
		Where(c.Context(), func(cols koapa.Columns) *koapa.ExpressionChain {
			return cols.Get("username").Equals(p["username"])
		})
	if err != nil {
		return err
	}
	return data(c, res)
}

// DeleteUser deletes the user named by the username parameter.
func DeleteUser(c *Context) error {
	p, err := requireParams(c, "username")
	if err != nil {
		return err
	}
	res, err := c.Database().Delete(UsersTable).
		Where(c.Context(), func(cols koapa.Columns) *koapa.ExpressionChain {
			return cols.Get("username").Equals(p["username"])
		})
	if err != nil {
		return err
	}
	return data(c, res)
}

// requireParams returns the named query parameters, or a 400 naming the
// ones that are empty.
func requireParams(c *Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, n := range names {
		v := c.Query(n)
		if v == "" {
			missing = append(missing, n)
		}
		values[n] = v
	}
	if len(missing) > 0 {
		return nil, &Error{
			Message: "Missing parameters",
			Status:  http.StatusBadRequest,
			Details: map[string]any{"missing": missing},
		}
	}
	return values, nil
}
