package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"github.com/toyz/serupd/internal/annotations"
	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
	"github.com/toyz/serupd/internal/parser"
)

// fixture is one testdata/*.txtar archive. The archive comment holds
// option overrides as YAML.
type fixture struct {
	name     string
	opts     Options
	input    []byte
	comments *models.ColumnCommentMap
	display  string
	want     []byte
}

type fixtureOptions struct {
	Placement string `yaml:"placement"`
	Order     string `yaml:"order"`
}

func loadFixtures(t *testing.T) []fixture {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	var fixtures []fixture
	for _, path := range paths {
		archive, err := txtar.ParseFile(path)
		require.NoError(t, err, path)

		f := fixture{name: strings.TrimSuffix(filepath.Base(path), ".txtar"), opts: DefaultOptions()}

		var fo fixtureOptions
		if err := yaml.Unmarshal(archive.Comment, &fo); err == nil {
			f.opts.Placement, err = ParsePlacement(fo.Placement)
			require.NoError(t, err, path)
			f.opts.Order, err = annotations.ParseOrderPolicy(fo.Order)
			require.NoError(t, err, path)
		}

		for _, file := range archive.Files {
			switch file.Name {
			case "input.cs":
				f.input = file.Data
			case "want.cs":
				f.want = file.Data
			case "display.txt":
				f.display = strings.TrimSpace(string(file.Data))
			case "comments.txt":
				f.comments = parseComments(string(file.Data))
			default:
				t.Fatalf("%s: unexpected file %s", path, file.Name)
			}
		}
		require.NotNil(t, f.input, path)
		require.NotNil(t, f.want, path)
		fixtures = append(fixtures, f)
	}
	return fixtures
}

// parseComments reads "column: comment" lines
func parseComments(data string) *models.ColumnCommentMap {
	m := models.NewColumnCommentMap(nil)
	for _, line := range strings.Split(data, "\n") {
		column, comment, ok := strings.Cut(line, ":")
		if ok {
			m.Set(strings.TrimSpace(column), comment)
		}
	}
	return m
}

func allBackends(t *testing.T) []parser.Backend {
	t.Helper()
	var out []parser.Backend
	for _, name := range parser.Names() {
		b, err := parser.NewBackend(name)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func (f fixture) run(t *testing.T, e *Engine, src []byte) []byte {
	t.Helper()
	ctx := context.Background()
	if f.comments != nil {
		res, err := e.SyncProperties(ctx, src, f.comments)
		require.NoError(t, err)
		src = res.Text
	}
	if f.display != "" {
		res, err := e.SyncClass(ctx, src, f.display)
		require.NoError(t, err)
		src = res.Text
	}
	return src
}

func TestFixtures(t *testing.T) {
	for _, f := range loadFixtures(t) {
		for _, backend := range allBackends(t) {
			t.Run(f.name+"/"+backend.Name(), func(t *testing.T) {
				e := New(backend, f.opts)

				got := f.run(t, e, f.input)
				if diff := cmp.Diff(string(f.want), string(got)); diff != "" {
					t.Fatalf("rewrite mismatch (-want +got):\n%s", diff)
				}

				again := f.run(t, e, got)
				if diff := cmp.Diff(string(got), string(again)); diff != "" {
					t.Fatalf("second run changed the output (-first +second):\n%s", diff)
				}
			})
		}
	}
}

func TestSyncProperties_Result(t *testing.T) {
	src := []byte(`class OrderRow { [Column("cust_id")] public int CustId { get; set; } }`)
	comments := models.NewColumnCommentMap(map[string]string{"cust_id": "Customer ID"})

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			e := New(backend, DefaultOptions())

			res, err := e.SyncProperties(context.Background(), src, comments)
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, []string{"CustId"}, res.Updated)
			assert.NoError(t, res.Skipped)

			again, err := e.SyncProperties(context.Background(), res.Text, comments)
			require.NoError(t, err)
			assert.False(t, again.Changed)
			assert.Empty(t, again.Updated)
			assert.Equal(t, res.Text, again.Text)
		})
	}
}

func TestSyncProperties_RoundTrip(t *testing.T) {
	src := []byte(`namespace N
{
    public class ItemRow
    {
        [DisplayName("Item name"), Column("item_name")]
        public string ItemName { get; set; }
    }
}
`)
	comments := models.NewColumnCommentMap(map[string]string{"ITEM_NAME": "  Item name  "})

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			res, err := New(backend, DefaultOptions()).SyncProperties(context.Background(), src, comments)
			require.NoError(t, err)
			assert.False(t, res.Changed)
			assert.Equal(t, string(src), string(res.Text))
		})
	}
}

func TestSyncProperties_EmptyCommentsLeaveTextAlone(t *testing.T) {
	src := []byte(`class OrderRow { [Column("cust_id")] public int CustId { get; set; } }`)

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			e := New(backend, DefaultOptions())
			for _, comments := range []*models.ColumnCommentMap{
				nil,
				models.NewColumnCommentMap(nil),
				models.NewColumnCommentMap(map[string]string{"cust_id": "   "}),
				models.NewColumnCommentMap(map[string]string{"other": "Other"}),
			} {
				res, err := e.SyncProperties(context.Background(), src, comments)
				require.NoError(t, err)
				assert.False(t, res.Changed)
				assert.Equal(t, src, res.Text)
			}
		})
	}
}

func TestSyncProperties_NoEligibleMembers(t *testing.T) {
	src := []byte(`public class OrderRow
{
    public int Id { get; }
    public int Computed => 42;
    public string Name { get; init; }
}
`)
	comments := models.NewColumnCommentMap(map[string]string{"Id": "Identifier"})

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			res, err := New(backend, DefaultOptions()).SyncProperties(context.Background(), src, comments)
			require.NoError(t, err)
			assert.False(t, res.Changed)
			assert.ErrorIs(t, res.Skipped, errors.ErrNoEligibleMembers)
			assert.Equal(t, src, res.Text)
		})
	}
}

func TestSyncProperties_NotFound(t *testing.T) {
	src := []byte(`public class OrderRowFields : OrderRowFieldsBase { public int Id { get; set; } }`)

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			e := New(backend, DefaultOptions())
			_, err := e.SyncProperties(context.Background(), src, models.NewColumnCommentMap(map[string]string{"Id": "x"}))
			assert.ErrorIs(t, err, errors.ErrNotFound)

			_, err = e.SyncClass(context.Background(), src, "Orders")
			assert.ErrorIs(t, err, errors.ErrNotFound)

			_, err = e.Analyze(context.Background(), src)
			assert.ErrorIs(t, err, errors.ErrNotFound)
		})
	}
}

func TestSyncProperties_EscapingRoundTrip(t *testing.T) {
	src := []byte(`class NoteRow { [Column("body")] public string Body { get; set; } }`)
	comment := "Say \"hi\"\tto C:\\temp\nnext line"
	comments := models.NewColumnCommentMap(map[string]string{"body": comment})

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			e := New(backend, DefaultOptions())
			res, err := e.SyncProperties(context.Background(), src, comments)
			require.NoError(t, err)
			require.True(t, res.Changed)
			assert.Contains(t, string(res.Text), `[DisplayName("Say \"hi\"\tto C:\\temp\nnext line")]`)
			assert.NotContains(t, string(res.Text), "\n")

			info, err := e.Analyze(context.Background(), res.Text)
			require.NoError(t, err)
			require.Len(t, info.Members, 1)
			assert.Equal(t, comment, info.Members[0].Display)

			again, err := e.SyncProperties(context.Background(), res.Text, comments)
			require.NoError(t, err)
			assert.False(t, again.Changed)
		})
	}
}

func TestSyncProperties_CRLF(t *testing.T) {
	src := []byte("namespace N\r\n{\r\n\tpublic class OrderRow\r\n\t{\r\n\t\t[Column(\"cust_id\")]\r\n\t\tpublic int CustId { get; set; }\r\n\t}\r\n}\r\n")
	want := "namespace N\r\n{\r\n\tpublic class OrderRow\r\n\t{\r\n\t\t[DisplayName(\"Customer\")]\r\n\t\t[Column(\"cust_id\")]\r\n\t\tpublic int CustId { get; set; }\r\n\t}\r\n}\r\n"
	comments := models.NewColumnCommentMap(map[string]string{"cust_id": "Customer"})

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			res, err := New(backend, DefaultOptions()).SyncProperties(context.Background(), src, comments)
			require.NoError(t, err)
			assert.Equal(t, want, string(res.Text))
		})
	}
}

func TestSyncClass_BlankDisplay(t *testing.T) {
	src := []byte("public class OrderRow { public int Id { get; set; } }\n")

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			res, err := New(backend, DefaultOptions()).SyncClass(context.Background(), src, " \t")
			require.NoError(t, err)
			assert.False(t, res.Changed)
			assert.Equal(t, src, res.Text)
		})
	}
}

func TestSyncClass_UsingAfterBOM(t *testing.T) {
	src := []byte("\ufeffpublic class OrderRow\n{\n    public int Id { get; set; }\n}\n")

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			res, err := New(backend, DefaultOptions()).SyncClass(context.Background(), src, "Orders")
			require.NoError(t, err)
			require.True(t, res.Changed)

			text := string(res.Text)
			assert.True(t, strings.HasPrefix(text, "\ufeffusing EnterpriseOne.Behaviors;\n\n[DisplayName(\"Orders\")]\n"), text)
			assert.Equal(t, 1, strings.Count(text, "using EnterpriseOne.Behaviors;"))
			assert.Contains(t, res.Updated, "using EnterpriseOne.Behaviors")
			assert.NotContains(t, res.Updated, "IAuditableRow")
		})
	}
}

func TestSyncClass_AuditGate(t *testing.T) {
	const audited = `
        public DateTime? CreatedAt { get; set; }
        public string CreatedBy { get; set; }
        public DateTime? UpdatedAt { get; set; }
        public string UpdatedBy { get; set; }
`
	tests := []struct {
		name   string
		header string
		body   string
		want   string
	}{
		{"adds to empty base list", "public class OrderRow", audited, "public class OrderRow : IAuditableRow"},
		{"appends after last base", "public class OrderRow : Row<OrderRow.RowFields>", audited, "public class OrderRow : Row<OrderRow.RowFields>, IAuditableRow"},
		{"already implemented", "public class OrderRow : Row<OrderRow.RowFields>, IAuditableRow", audited, "public class OrderRow : Row<OrderRow.RowFields>, IAuditableRow"},
		{"qualified interface", "public class OrderRow : Behaviors.IAuditableRow", audited, "public class OrderRow : Behaviors.IAuditableRow"},
		{"name without suffix", "public class Order", audited, "public class Order"},
		{"missing property", "public class OrderRow", strings.Replace(audited, "UpdatedBy", "ChangedBy", 1), "public class OrderRow"},
		{"wrong type", "public class OrderRow", strings.Replace(audited, "DateTime? UpdatedAt", "DateTime UpdatedAt", 1), "public class OrderRow"},
	}

	for _, tt := range tests {
		for _, backend := range allBackends(t) {
			t.Run(tt.name+"/"+backend.Name(), func(t *testing.T) {
				src := []byte("using EnterpriseOne.Behaviors;\n\n" + tt.header + "\n{" + tt.body + "}\n")
				res, err := New(backend, DefaultOptions()).SyncClass(context.Background(), src, "Orders")
				require.NoError(t, err)
				assert.Contains(t, string(res.Text), "\n"+tt.want+"\n{")
			})
		}
	}
}

func TestAnalyze(t *testing.T) {
	src := []byte(`using Serenity.Data;

[ConnectionKey("Default"), TableName("[dbo].[Orders]")]
public sealed class OrderRow : Row<OrderRow.RowFields>
{
    [DisplayName("Customer"), Column("cust_id")]
    public int CustId { get; set; }

    [Column(nameof(Code))]
    public string Code { get; set; }

    public string Remark { get; set; }

    public int Total => 0;
}
`)

	for _, backend := range allBackends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			info, err := New(backend, DefaultOptions()).Analyze(context.Background(), src)
			require.NoError(t, err)

			want := &ClassInfo{
				Name:          "OrderRow",
				ConnectionKey: "Default",
				TableName:     "[dbo].[Orders]",
				Members: []MemberInfo{
					{Name: "CustId", Key: "cust_id", DeclaredType: "int", Display: "Customer"},
					{Name: "Code", Key: "nameof(Code)", DeclaredType: "string"},
					{Name: "Remark", Key: "Remark", DeclaredType: "string"},
				},
			}
			if diff := cmp.Diff(want, info); diff != "" {
				t.Fatalf("Analyze mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	b, err := parser.NewBackend("")
	require.NoError(t, err)

	e := New(b, Options{Placement: FirstGroup, ReadSuffix: ":read"})
	opts := e.Options()
	assert.Equal(t, "Row", opts.RowSuffix)
	assert.Equal(t, "Column", opts.KeyAnnotation)
	assert.Equal(t, "EnterpriseOne.Behaviors", opts.SupportNamespace)
	assert.Equal(t, FirstGroup, opts.Placement)
	assert.Equal(t, ":read", opts.ReadSuffix)
	assert.Equal(t, parser.BackendTree, e.BackendName())
}
