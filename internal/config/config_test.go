package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/natded/pkg/natded"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Builtin, "lambda")
	assert.Equal(t, ":8080", cfg.Server.Addr)

	same, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, same)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides defaults", func(t *testing.T) {
		path := writeFile(t, dir, "natded.yaml", `
builtin: [booleans]
limits:
  max_depth: 64
log:
  level: debug
  format: json
server:
  addr: "127.0.0.1:9090"
batch:
  workers: 3
watch: true
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"booleans"}, cfg.Builtin)
		assert.Equal(t, 64, cfg.Limits.MaxDepth)
		assert.Equal(t, 10000, cfg.Limits.MaxSteps, "unset fields keep defaults")
		assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
		assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
		assert.Equal(t, 3, cfg.Batch.Workers)
		assert.True(t, cfg.Watch)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, dir, "bad.yaml", "limits: [1, 2"))
		assert.Error(t, err)
	})

	invalid := []struct {
		name string
		doc  string
	}{
		{"unknown calculus", "builtin: [sk-combinators]\n"},
		{"negative depth", "limits:\n  max_depth: -1\n"},
		{"unknown level", "log:\n  level: loud\n"},
		{"unknown format", "log:\n  format: xml\n"},
		{"bad address", "server:\n  addr: not an address\n"},
		{"empty rule path", "rules: [\"\"]\n"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, dir, "invalid.yaml", tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "%v", err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Log{Level: "warn", Format: "json"}.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())

	Log{Level: "info", Format: "json"}.NewLogger(&buf).Info("kept", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"kept"`)

	buf.Reset()
	Log{Level: "info", Format: "text"}.NewLogger(&buf).Info("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestRelations(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "tiny.yaml", `
name: →
rules:
  - "(if true then $t₂ else $t₃) → $t₂"
`)

	cfg := Default()
	cfg.Builtin = []string{"booleans"}
	cfg.Rules = []string{rules}

	relations, err := cfg.Relations(nil)
	require.NoError(t, err)
	require.Len(t, relations, 2)
	require.Contains(t, relations, "tiny")

	out, err := relations["tiny"].Once(natded.MustParse("if true then false else true"))
	require.NoError(t, err)
	assert.Equal(t, "false", out.String())

	t.Run("duplicate names", func(t *testing.T) {
		cfg.Rules = []string{rules, filepath.Join(dir, "tiny.json")}
		writeFile(t, dir, "tiny.json", `{"name": "→", "rules": ["true ∈ T"]}`)
		_, err := cfg.Relations(nil)
		assert.Error(t, err)
	})

	t.Run("bad rule file", func(t *testing.T) {
		cfg.Rules = []string{writeFile(t, dir, "broken.yaml", "name: →\nrules: [\"(x\"]\n")}
		_, err := cfg.Relations(nil)
		assert.True(t, errors.Is(err, natded.ErrParse))
	})

	assert.Equal(t, "stlc", RuleFileName("/etc/natded/stlc.yaml"))
}

// bareRules is a rule file in the plain list form, as JSON, without a
// relation name.
const bareRules = `[
  {"conclusion": "∅ ∈ Г"},
  {"premises": ["$Г ∈ Г"], "conclusion": "($x : $T , $Г) ∈ Г"},
  {"premises": ["$Г ∈ Г"], "conclusion": "$Г ⊢ true : Bool"},
  {"premises": ["$Г ∈ Г"], "conclusion": "$Г ⊢ false : Bool"}
]`

func TestLoadRelationNamed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.json", bareRules)

	_, err := LoadRelation(path)
	assert.ErrorIs(t, err, natded.ErrInvalidRuleSet)

	r, err := LoadRelationNamed(path, natded.Name{"⊢", ":"})
	require.NoError(t, err)
	assert.Equal(t, "⊢ :", r.Symbol())

	out, err := r.Once(natded.MustParse("(a : Bool , ∅)"), natded.MustParse("true"))
	require.NoError(t, err)
	assert.Equal(t, "Bool", out.String())

	t.Run("a named file keeps its name", func(t *testing.T) {
		named := writeFile(t, t.TempDir(), "flips.yaml", "name: flips\nrules: [\"true flips false\"]\n")
		r, err := LoadRelationNamed(named, natded.Name{"⊢", ":"})
		require.NoError(t, err)
		assert.Equal(t, "flips", r.Symbol())
	})

	t.Run("config supplies the name", func(t *testing.T) {
		cfg := Default()
		cfg.Builtin = nil
		cfg.Rules = []string{path}
		cfg.RelationName = natded.Name{"⊢", ":"}
		require.NoError(t, cfg.Validate())

		relations, err := cfg.Relations(nil)
		require.NoError(t, err)
		require.Contains(t, relations, "rules")
		assert.Equal(t, 2, relations["rules"].Arity())
	})
}

func TestCalculusValidation(t *testing.T) {
	assert.NoError(t, validate.Var("lambda", "calculus"))
	assert.Error(t, validate.Var("peano", "calculus"))
}
