package main

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

	"app-reconciler/internal/csvio"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/schema"
)

// setup writes a configuration that keeps every output under a temp dir and
// returns that dir.
func setup(t *testing.T) string {
	t.Helper()

	t.Setenv("FULCRUM_API_KEY", "")
	t.Setenv("FULCRUM_BASE_URL", "")

	root := t.TempDir()
	body := strings.Join([]string{
		"reconcile:",
		"  output_dir: " + filepath.Join(root, "out"),
		"upload:",
		"  id_map: " + filepath.Join(root, "ids.json"),
		"  failure_log: " + filepath.Join(root, "failed.log"),
		"  skip_log: " + filepath.Join(root, "skipped.log"),
	}, "\n")

	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(body), 0o644))

	return root
}

func execute(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(root, "config.yaml")}, args...))

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

func writeCSV(t *testing.T, path string, header []string, rows ...csvio.Row) {
	t.Helper()
	require.NoError(t, csvio.Write(path, header, rows))
}

func TestDiffAndTransform(t *testing.T) {
	root := setup(t)
	base := filepath.Join(root, "base")
	target := filepath.Join(root, "target")

	writeCSV(t, filepath.Join(base, "new.csv"), []string{"fulcrum_id", "name", "dob"})
	writeCSV(t, filepath.Join(target, "old.csv"), []string{"fulcrum_id", "full_name", "dob", "email"},
		csvio.Row{"fulcrum_id": "r1", "full_name": "Ann", "dob": "1990", "email": "a@example.com"})
	writeCSV(t, filepath.Join(target, "old_visits.csv"), []string{"fulcrum_id", "fulcrum_parent_id"})

	dirs := []string{"--base-dir", base, "--base-prefix", "new", "--target-dir", target, "--target-prefix", "old"}

	_, err := execute(t, root, append([]string{"diff", "--skip-prompts"}, dirs...)...)
	require.NoError(t, err)

	layout := mapping.Layout{Root: filepath.Join(root, "out")}

	diffs, err := mapping.ReadDifferences(layout.DifferencesPath("base"))
	require.NoError(t, err)
	require.NotEmpty(t, diffs)

	mismatches, err := os.ReadFile(layout.MismatchPath())
	require.NoError(t, err)
	assert.Contains(t, string(mismatches), "new_visits.csv")

	// resolve full_name by hand, as an operator would
	for i := range diffs {
		if diffs[i].Column == "full_name" {
			diffs[i].Resolution = "name"
		}
	}
	require.NoError(t, mapping.WriteDifferences(layout.DifferencesPath("base"), diffs))

	_, err = execute(t, root, append([]string{"transform"}, dirs...)...)
	require.NoError(t, err)

	out, err := csvio.Read(layout.NewRecordsPath("base"))
	require.NoError(t, err)
	assert.Contains(t, out.Header, "name")
	assert.NotContains(t, out.Header, "full_name")
	assert.Equal(t, "Ann", out.Rows[0]["name"])
}

func TestSites(t *testing.T) {
	root := setup(t)

	header := []string{"client_name", "account_reference", "property_type", "account_status",
		"site_address_postal_code", "site_address_full"}

	writeCSV(t, filepath.Join(root, "records.csv"), header,
		csvio.Row{"client_name": "Acme", "account_reference": "J1", "site_address_postal_code": "LS1"})
	writeCSV(t, filepath.Join(root, "clients.csv"), []string{"fulcrum_id", "client_name"},
		csvio.Row{"fulcrum_id": "c1", "client_name": "Acme"})

	_, err := execute(t, root, "sites",
		"--records", filepath.Join(root, "records.csv"),
		"--clients", filepath.Join(root, "clients.csv"),
		"--existing", filepath.Join(root, "missing.csv"))
	require.NoError(t, err)

	out, err := csvio.Read(mapping.Layout{Root: filepath.Join(root, "out")}.SiteLocationsPath())
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "c1", out.Rows[0]["client"])
	assert.Equal(t, "LS1", out.Rows[0]["site_address_postal_code"])
}

const testForm = `{"form": {"id": "form-1", "name": "Jobs", "elements": [
	{"key": "a1", "data_name": "name", "type": "TextField"},
	{"key": "a2", "data_name": "sec", "type": "Section", "elements": [
		{"key": "a3", "data_name": "status", "type": "ChoiceField"}
	]},
	{"key": "a4", "data_name": "visits", "type": "Repeatable", "elements": [
		{"key": "b1", "data_name": "when", "type": "DateField"}
	]}
]}}`

func TestFlatten(t *testing.T) {
	root := setup(t)
	formPath := filepath.Join(root, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(testForm), 0o644))

	out, err := execute(t, root, "flatten", "--form-file", formPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "name")
	assert.Contains(t, lines[2], "status")
	assert.Contains(t, lines[3], "when")

	out, err = execute(t, root, "flatten", "--form-file", formPath, "--find", "visits")
	require.NoError(t, err)
	assert.Equal(t, "a4\n", out)

	flattenFind = ""

	out, err = execute(t, root, "flatten", "--form-file", formPath, "--all", "--names")
	require.NoError(t, err)
	assert.Equal(t, "name\nstatus\nvisits\nwhen\n", out)
}

func TestImportDryRun(t *testing.T) {
	root := setup(t)
	formPath := filepath.Join(root, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(testForm), 0o644))

	data := filepath.Join(root, "data")
	writeCSV(t, filepath.Join(data, "base.csv"), []string{"fulcrum_id", "name", "status"},
		csvio.Row{"fulcrum_id": "r1", "name": "Ann", "status": "Open"},
		csvio.Row{"fulcrum_id": "r2", "name": "", "status": ""})
	writeCSV(t, filepath.Join(data, "visits.csv"), []string{"fulcrum_id", "fulcrum_parent_id", "when"},
		csvio.Row{"fulcrum_id": "v1", "fulcrum_parent_id": "r1", "when": "2024-01-01"})

	_, err := execute(t, root, "import", "--dry-run", "--keep-scratch", "--form-file", formPath, "--dir", data)
	require.NoError(t, err)

	// dry runs never persist ids
	_, err = os.Stat(filepath.Join(root, "ids.json"))
	assert.True(t, os.IsNotExist(err))

	payloads, err := filepath.Glob(filepath.Join(root, "out", "runs", "*", "payloads.json"))
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	raw, err := os.ReadFile(payloads[0])
	require.NoError(t, err)

	var records []struct {
		FormID     string                     `json:"form_id"`
		FormValues map[string]json.RawMessage `json:"form_values"`
	}
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)

	assert.Equal(t, "form-1", records[0].FormID)
	assert.JSONEq(t, `"Ann"`, string(records[0].FormValues["a1"]))
	assert.JSONEq(t, `{"choice_values":["Open"],"other_values":[]}`, string(records[0].FormValues["a3"]))
	assert.JSONEq(t, `[{"form_values":{"b1":"2024-01-01"}}]`, string(records[0].FormValues["a4"]))
	assert.Empty(t, records[1].FormValues)
}

const linkForm = `{"form": {"id": "form-2", "name": "Follow-ups", "elements": [
	{"key": "c1", "data_name": "notes", "type": "TextField"},
	{"key": "c2", "data_name": "survey", "type": "RecordLinkField"}
]}}`

func TestImportFollowUpLinks(t *testing.T) {
	root := setup(t)
	t.Cleanup(func() { importFlags.linkMap = "" })

	formPath := filepath.Join(root, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(linkForm), 0o644))

	data := filepath.Join(root, "data")
	writeCSV(t, filepath.Join(data, "base.csv"), []string{"fulcrum_id", "notes"},
		csvio.Row{"fulcrum_id": "V1", "notes": "seen"})

	readPayloads := func() map[string]json.RawMessage {
		t.Helper()

		files, err := filepath.Glob(filepath.Join(root, "out", "runs", "*", "payloads.json"))
		require.NoError(t, err)
		require.NotEmpty(t, files)

		raw, err := os.ReadFile(files[len(files)-1])
		require.NoError(t, err)

		var records []struct {
			FormValues map[string]json.RawMessage `json:"form_values"`
		}
		require.NoError(t, json.Unmarshal(raw, &records))
		require.Len(t, records, 1)

		for _, f := range files {
			require.NoError(t, os.Remove(f))
		}

		return records[0].FormValues
	}

	// a plain import has no link map, so the missing link column is just empty
	_, err := execute(t, root, "import", "--dry-run", "--keep-scratch", "--form-file", formPath, "--dir", data)
	require.NoError(t, err)

	values := readPayloads()
	assert.JSONEq(t, `"seen"`, string(values["c1"]))
	assert.NotContains(t, values, "c2")

	linkMap := filepath.Join(root, "survey_ids.json")
	require.NoError(t, os.WriteFile(linkMap, []byte(`{"V1": "survey-new-1"}`), 0o644))

	_, err = execute(t, root, "import", "--dry-run", "--keep-scratch", "--form-file", formPath, "--dir", data,
		"--link-map", linkMap)
	require.NoError(t, err)

	values = readPayloads()
	assert.JSONEq(t, `[{"record_id":"survey-new-1"}]`, string(values["c2"]))

	_, err = execute(t, root, "import", "--dry-run", "--form-file", formPath, "--dir", data,
		"--link-map", filepath.Join(root, "ids.json"))
	require.ErrorIs(t, err, errLinkMapIsIDMap)

	_, err = execute(t, root, "import", "--dry-run", "--form-file", formPath, "--dir", data,
		"--link-map", filepath.Join(root, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportOrphanChildRows(t *testing.T) {
	root := setup(t)
	formPath := filepath.Join(root, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(testForm), 0o644))

	data := filepath.Join(root, "data")
	writeCSV(t, filepath.Join(data, "base.csv"), []string{"fulcrum_id", "name"},
		csvio.Row{"fulcrum_id": "r1", "name": "Ann"})
	writeCSV(t, filepath.Join(data, "visits.csv"), []string{"fulcrum_id", "fulcrum_parent_id", "when"},
		csvio.Row{"fulcrum_id": "v9", "fulcrum_parent_id": "r9", "when": "2024-01-01"})

	_, err := execute(t, root, "import", "--dry-run", "--form-file", formPath, "--dir", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan_child_rows")

	_, err = os.Stat(filepath.Join(root, "skipped.log"))
	assert.True(t, os.IsNotExist(err), "nothing is uploaded")
}

func TestImportDuplicateFormFailsFirst(t *testing.T) {
	root := setup(t)
	formPath := filepath.Join(root, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(`{"form": {"id": "f", "elements": [
		{"key": "a", "data_name": "name", "type": "TextField"},
		{"key": "b", "data_name": "name", "type": "TextField"}
	]}}`), 0o644))

	_, err := execute(t, root, "import", "--dry-run", "--form-file", formPath, "--dir", filepath.Join(root, "nowhere"))
	require.ErrorIs(t, err, schema.ErrDuplicateDataName)
}

func TestImportNeedsAPIKey(t *testing.T) {
	root := setup(t)
	formPath := filepath.Join(root, "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(testForm), 0o644))

	_, err := execute(t, root, "import", "--dry-run=false", "--form-file", formPath, "--dir", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestConfig(t *testing.T) {
	root := setup(t)
	t.Setenv("FULCRUM_API_KEY", "secret-key")

	out, err := execute(t, root, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "output_dir: "+filepath.Join(root, "out"))
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "secret-key")
}
