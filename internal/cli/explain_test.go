package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain_Text(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "explain", "users", "--db", db,
		"--where", "age > 30", "--order", "OrderByNameDescending", "--take", "5")
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "Users".* FROM "Users" WHERE "Users"."Age" > ? ORDER BY "Users"."Name" DESC LIMIT ?`+"\n"+
			"params: [30 5]\n",
		out)
}

func TestExplain_JSONNavigation(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "explain", "Customers", "--db", db, "--nav", "Orders", "--format", "json")
	require.NoError(t, err)

	resp := decode(t, out)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Customers.Orders", data["table"])
	assert.Equal(t,
		`SELECT "Orders".* FROM "Customers" INNER JOIN "Orders" ON "Customers"."CustomerId" = "Orders"."CustomerId"`,
		data["sql"])
	assert.Equal(t, []any{}, data["params"])
}

func TestExplain_CompileError(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "explain", "Users", "--db", db, "--nav", "Orders", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeQuery, decode(t, out).Error.Code)
}
