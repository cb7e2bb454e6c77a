package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactos/internal/contact"
	"github.com/roach88/contactos/internal/importer"
	"github.com/roach88/contactos/internal/store"
)

// runCLI executes the root command against dbPath and returns its output.
func runCLI(t *testing.T, dbPath, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "contacts.db")
}

func seedStore(t *testing.T, dbPath string, inputs ...contact.Input) []contact.Contact {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	out := make([]contact.Contact, 0, len(inputs))
	for _, in := range inputs {
		c, err := st.Create(context.Background(), in)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func readAll(t *testing.T, dbPath string) []contact.Contact {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	all, err := st.GetAll(context.Background())
	require.NoError(t, err)
	return all
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestAddCommand(t *testing.T) {
	db := testDB(t)

	out, _, err := runCLI(t, db, "", "add", "--name", "Ana López", "--email", "ana@x.com", "--phone", "555")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Ana López <ana@x.com> 555")

	all := readAll(t, db)
	require.Len(t, all, 1)
	assert.Equal(t, "ana@x.com", all[0].Email)
}

func TestAddCommand_JSON(t *testing.T) {
	db := testDB(t)

	out, _, err := runCLI(t, db, "", "--format", "json", "add", "--name", "Ana", "--email", "ana@x.com", "--phone", "1")
	require.NoError(t, err)

	var c contact.Contact
	decodeData(t, out, &c)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "Ana", c.Name)
}

func TestAddCommand_MissingFlag(t *testing.T) {
	_, _, err := runCLI(t, testDB(t), "", "add", "--name", "Ana", "--email", "ana@x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestAddCommand_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	out, _, err := runCLI(t, db, "", "--format", "json", "add", "--name", "B", "--email", "a@x.com", "--phone", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrDuplicateEmail)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeDuplicateEmail, resp.Error.Code)

	assert.Len(t, readAll(t, db), 1)
}

func TestAddCommand_StorageUnavailable(t *testing.T) {
	_, _, err := runCLI(t, "/nonexistent/dir/contacts.db", "", "add", "--name", "A", "--email", "a@x.com", "--phone", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
	assert.ErrorIs(t, err, contact.ErrStorageUnavailable)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUpdateCommand_ChangesOnlyGivenFields(t *testing.T) {
	db := testDB(t)
	seeded := seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	_, _, err := runCLI(t, db, "", "update", "1", "--phone", "999")
	require.NoError(t, err)

	all := readAll(t, db)
	require.Len(t, all, 1)
	assert.Equal(t, contact.Contact{ID: seeded[0].ID, Name: "A", Email: "a@x.com", Phone: "999"}, all[0])
}

func TestUpdateCommand_NotFound(t *testing.T) {
	_, _, err := runCLI(t, testDB(t), "", "update", "7", "--name", "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrNotFound)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestUpdateCommand_NothingToUpdate(t *testing.T) {
	_, _, err := runCLI(t, testDB(t), "", "update", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestUpdateCommand_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	seedStore(t, db,
		contact.Input{Name: "A", Email: "a@x.com", Phone: "1"},
		contact.Input{Name: "B", Email: "b@x.com", Phone: "2"},
	)

	_, _, err := runCLI(t, db, "", "update", "2", "--email", "a@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrDuplicateEmail)
}

func TestDeleteCommand_Idempotent(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	out, _, err := runCLI(t, db, "", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted contact 1")

	_, _, err = runCLI(t, db, "", "delete", "1")
	require.NoError(t, err)

	assert.Empty(t, readAll(t, db))
}

func TestInvalidID(t *testing.T) {
	for _, args := range [][]string{{"delete", "abc"}, {"get", "0"}, {"update", "x1", "--name", "x"}} {
		_, _, err := runCLI(t, testDB(t), "", args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "invalid contact id", args)
		assert.Equal(t, ExitCommandError, GetExitCode(err), args)
	}
}

func TestUsageErrors_Structured(t *testing.T) {
	for _, args := range [][]string{{"get", "abc"}, {"update", "1"}} {
		out, _, err := runCLI(t, testDB(t), "", append([]string{"--format", "json"}, args...)...)
		require.Error(t, err, args)
		assert.Equal(t, ExitCommandError, GetExitCode(err), args)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp), args)
		assert.Equal(t, "error", resp.Status, args)
		require.NotNil(t, resp.Error, args)
		assert.Equal(t, CodeUsage, resp.Error.Code, args)
	}
}

func TestGetCommand(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	out, _, err := runCLI(t, db, "", "--format", "json", "get", "1")
	require.NoError(t, err)

	var c contact.Contact
	decodeData(t, out, &c)
	assert.Equal(t, "a@x.com", c.Email)

	_, _, err = runCLI(t, db, "", "get", "2")
	assert.ErrorIs(t, err, contact.ErrNotFound)
}

func TestListAndSearchCommands(t *testing.T) {
	db := testDB(t)
	seedStore(t, db,
		contact.Input{Name: "Ana López", Email: "ana@x.com", Phone: "1"},
		contact.Input{Name: "Luis Ana", Email: "luis@x.com", Phone: "2"},
		contact.Input{Name: "Pedro", Email: "pedro@x.com", Phone: "3"},
	)

	out, _, err := runCLI(t, db, "", "list")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))

	out, _, err = runCLI(t, db, "", "--format", "json", "search", "ANA")
	require.NoError(t, err)
	var found []contact.Contact
	decodeData(t, out, &found)
	require.Len(t, found, 2)
	assert.Equal(t, "Ana López", found[0].Name)
	assert.Equal(t, "Luis Ana", found[1].Name)

	out, _, err = runCLI(t, db, "", "search")
	require.NoError(t, err)
	assert.Contains(t, out, "Pedro", "empty query lists everything")

	out, _, err = runCLI(t, db, "", "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No contacts found.")
}

func TestExportImportCommands_RoundTrip(t *testing.T) {
	src := testDB(t)
	seedStore(t, src,
		contact.Input{Name: "Ana López", Email: "ana@x.com", Phone: "1"},
		contact.Input{Name: "Pedro", Email: "pedro@x.com", Phone: "3"},
	)

	backupPath := filepath.Join(t.TempDir(), "contactos_backup.json")
	out, _, err := runCLI(t, src, "", "export", "-o", backupPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 contacts")

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": 1,"), "pretty-printed array")

	dst := testDB(t)
	out, _, err = runCLI(t, dst, "", "--format", "json", "import", backupPath)
	require.NoError(t, err)

	var report importer.Report
	decodeData(t, out, &report)
	assert.Equal(t, 2, report.Inserted)
	assert.Zero(t, report.Skipped)

	// Importing the same file again only skips.
	out, _, err = runCLI(t, dst, "", "import", backupPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 inserted, 2 skipped")

	srcInputs, dstInputs := []contact.Input{}, []contact.Input{}
	for _, c := range readAll(t, src) {
		srcInputs = append(srcInputs, c.Input())
	}
	for _, c := range readAll(t, dst) {
		dstInputs = append(dstInputs, c.Input())
	}
	assert.ElementsMatch(t, srcInputs, dstInputs)
}

func TestExportCommand_Stdout(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	out, _, err := runCLI(t, db, "", "export", "-o", "-")
	require.NoError(t, err)

	var exported []contact.Contact
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "a@x.com", exported[0].Email)
}

func TestImportCommand_Stdin(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	payload := `[
		{"name": "A2", "email": "a@x.com", "phone": "2"},
		{"name": "B", "email": "b@x.com", "phone": "3"},
		{"name": "C", "email": "c@x.com"}
	]`
	out, _, err := runCLI(t, db, payload, "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "1 inserted, 1 skipped (duplicate email), 1 rejected of 3")
	assert.Contains(t, out, "#2: invalid contact: phone is required")

	all := readAll(t, db)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name)
}

func TestImportCommand_MistypedFieldIsRejectedNotFatal(t *testing.T) {
	db := testDB(t)

	payload := `[{"name":"A","email":"a@x.com","phone":"1"},{"name":"B","email":"b@x.com","phone":5551234}]`
	out, _, err := runCLI(t, db, payload, "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "1 inserted, 0 skipped (duplicate email), 1 rejected of 2")
	assert.Contains(t, out, "#1: invalid contact: phone must be a string")

	all := readAll(t, db)
	require.Len(t, all, 1)
	assert.Equal(t, "a@x.com", all[0].Email)
}

func TestImportCommand_Malformed(t *testing.T) {
	db := testDB(t)

	out, _, err := runCLI(t, db, `{"not": "an array"}`, "--format", "yaml", "import", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrMalformedInput)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_MALFORMED_INPUT")
}

func TestImportCommand_MissingFile(t *testing.T) {
	_, _, err := runCLI(t, testDB(t), "", "import", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read import file")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportCommand_MaxBatch(t *testing.T) {
	payload := `[{"name":"A","email":"a@x.com","phone":"1"},{"name":"B","email":"b@x.com","phone":"2"}]`

	_, _, err := runCLI(t, testDB(t), payload, "--max-batch", "1", "import", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrBatchTooLarge)
}

func TestStatsCommand(t *testing.T) {
	db := testDB(t)
	seedStore(t, db,
		contact.Input{Name: "A", Email: "a@x.com", Phone: "1"},
		contact.Input{Name: "B", Email: "b@x.com", Phone: "2"},
	)

	out, _, err := runCLI(t, db, "", "--format", "json", "stats")
	require.NoError(t, err)

	var stats Stats
	decodeData(t, out, &stats)
	assert.Equal(t, 2, stats.Contacts)
	assert.Equal(t, db, stats.Database)
}

func TestMetricsFlag(t *testing.T) {
	db := testDB(t)

	_, errOut, err := runCLI(t, db, "", "--metrics", "add", "--name", "A", "--email", "a@x.com", "--phone", "1")
	require.NoError(t, err)
	assert.Contains(t, errOut, `contactos_store_operations_total{op="create",result="ok"} 1`)
}

func TestMetricsFlag_WrittenOnFailure(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, contact.Input{Name: "A", Email: "a@x.com", Phone: "1"})

	_, errOut, err := runCLI(t, db, "", "--metrics", "add", "--name", "B", "--email", "a@x.com", "--phone", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut, `contactos_store_operations_total{op="create",result="error"} 1`)
}

func TestVerboseLogsToStderr(t *testing.T) {
	db := testDB(t)

	out, errOut, err := runCLI(t, db, "", "-v", "--format", "json", "list")
	require.NoError(t, err)
	assert.Contains(t, errOut, "opening database")

	var contacts []contact.Contact
	decodeData(t, out, &contacts)
	assert.Empty(t, contacts)
}

func TestDatabaseFromEnvironment(t *testing.T) {
	db := testDB(t)
	t.Setenv("CONTACTOS_DB", db)

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"add", "--name", "A", "--email", "a@x.com", "--phone", "1"})
	require.NoError(t, cmd.Execute())

	assert.Len(t, readAll(t, db), 1)
}
