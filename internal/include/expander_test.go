// Package include tests breadth-first expansion of local, remote, project
// and component includes.
// Related: internal/include/expander.go, internal/include/fetch.go, internal/include/component.go
// Tags: include, expander, http, httptest, components, cache
package include

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/pipeline"
	"github.com/smurf667/pipeline-consigliere/internal/progress"
	"github.com/smurf667/pipeline-consigliere/internal/testutil"
)

// requests records request URIs seen by a test server.
type requests struct {
	mu   sync.Mutex
	uris []string
}

func (r *requests) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uri := req.URL.EscapedPath()
	if req.URL.RawQuery != "" {
		uri += "?" + req.URL.RawQuery
	}
	r.uris = append(r.uris, uri)
}

func (r *requests) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uris...)
}

type recorder struct {
	warnings []string
}

func (r *recorder) Warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

type steps struct {
	started   []progress.StepInfo
	completed []int
	failed    []string
}

func (s *steps) StartStep(step progress.StepInfo) error {
	s.started = append(s.started, step)
	return nil
}

func (s *steps) CompleteStep(_ progress.StepInfo, documents int) {
	s.completed = append(s.completed, documents)
}

func (s *steps) FailStep(step progress.StepInfo, _ error) {
	s.failed = append(s.failed, step.Name)
}

var env = testutil.Env

// expand parses root, expands its includes and returns the model.
func expand(t *testing.T, root string, opts Options) (*pipeline.Model, *recorder) {
	t.Helper()
	log := &recorder{}
	opts.Log = log
	if opts.Getenv == nil {
		opts.Getenv = env(nil)
	}
	e, err := NewExpander(opts)
	require.NoError(t, err)

	doc, err := document.Parse(".gitlab-ci.yml", []byte(root))
	require.NoError(t, err)
	model, includes := pipeline.NewModel(doc)
	require.NoError(t, e.Expand(context.Background(), model, includes))
	return model, log
}

func paths(model *pipeline.Model) []string {
	var names []string
	for _, doc := range model.Includes {
		names = append(names, doc.Path)
	}
	return names
}

func TestExpand_LocalBreadthFirst(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{
		"a.yml":    "include: ci/c.yml\njob_a:\n  script: a\nshared:\n  script: a\n",
		"b.yml":    "job_b:\n  script: b\nshared:\n  script: b\n",
		"ci/c.yml": "job_c:\n  script: c\nshared:\n  script: c\n",
	})
	tracker := &steps{}

	model, log := expand(t, "include:\n  - a.yml\n  - local: /b.yml\nshared:\n  script: root\n",
		Options{WorkDir: dir, Progress: tracker})

	assert.Empty(t, log.warnings)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "ci/c.yml"),
	}, paths(model))
	assert.Equal(t, map[string]any{"script": "c"}, model.View["shared"])
	for _, job := range []string{"job_a", "job_b", "job_c"} {
		assert.Contains(t, model.View, job)
	}

	assert.Equal(t, []progress.StepInfo{
		{Name: "a.yml", Number: 1, Total: 2},
		{Name: "/b.yml", Number: 2, Total: 3},
		{Name: "ci/c.yml", Number: 3, Total: 3},
	}, tracker.started)
	assert.Equal(t, []int{1, 1, 1}, tracker.completed)
}

func TestExpand_MissingLocalFileWarns(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{"b.yml": "job_b:\n  script: b\n"})
	tracker := &steps{}

	model, log := expand(t, "include: [missing.yml, b.yml]\n", Options{WorkDir: dir, Progress: tracker})

	assert.Equal(t, []string{filepath.Join(dir, "b.yml")}, paths(model))
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "missing.yml does not exist")
	assert.Equal(t, []string{"missing.yml"}, tracker.failed)
}

func TestExpand_Variables(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{"ci/a.yml": "job:\n  script: a\n"})

	model, log := expand(t, "include:\n  - $CI_DIR/a.yml\n  - $UNSET_DIR/b.yml\n", Options{
		WorkDir: dir,
		Getenv:  env(map[string]string{"CI_DIR": "ci"}),
	})

	assert.Equal(t, []string{filepath.Join(dir, "ci/a.yml")}, paths(model))
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "$UNSET_DIR/b.yml")
}

func TestExpand_UnsupportedIncludeWarns(t *testing.T) {
	t.Parallel()

	model, log := expand(t, "include:\n  - template: Jobs/Build.gitlab-ci.yml\n", Options{WorkDir: t.TempDir()})

	assert.Empty(t, model.Includes)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "cannot handle include")
}

func TestExpand_RemoteWithCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.yml":
			hits.Add(1)
			fmt.Fprint(w, "remote_job:\n  script: r\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	root := fmt.Sprintf("include:\n  - %[1]s/ok.yml\n  - remote: %[1]s/missing.yml\n  - remote: %[1]s/ok.yml\n", srv.URL)
	model, log := expand(t, root, Options{WorkDir: t.TempDir(), Client: srv.Client()})

	assert.Len(t, model.Includes, 1)
	assert.Contains(t, model.View, "remote_job")
	assert.Equal(t, int32(1), hits.Load())
	require.Len(t, log.warnings, 2)
	assert.Contains(t, log.warnings[0], "404")
	assert.Contains(t, log.warnings[1], "already included")
}

func TestExpand_CyclicIncludesTerminate(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{
		"a.yml":    "include: ci/b.yml\njob_a:\n  script: a\n",
		"ci/b.yml": "include:\n  - local: /a.yml\n  - $SELF\njob_b:\n  script: b\n",
	})
	tracker := &steps{}

	model, log := expand(t, "include: a.yml\n", Options{
		WorkDir:  dir,
		Progress: tracker,
		Getenv:   env(map[string]string{"SELF": "ci/b.yml"}),
	})

	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "ci/b.yml"),
	}, paths(model))
	require.Len(t, log.warnings, 2)
	for _, w := range log.warnings {
		assert.Contains(t, w, "already included")
	}
	assert.Len(t, tracker.started, 2)
}

func TestExpand_CyclicRemoteIncludes(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		other := "/a.yml"
		if r.URL.Path == "/a.yml" {
			other = "/b.yml"
		}
		fmt.Fprintf(w, "include: %s%s\n%s:\n  script: x\n", srv.URL, other, strings.Trim(r.URL.Path, "/.ym"))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e, err := NewExpander(Options{WorkDir: t.TempDir(), Client: srv.Client(), Getenv: env(nil)})
	require.NoError(t, err)
	doc, err := document.Parse(".gitlab-ci.yml", nil)
	require.NoError(t, err)
	model, _ := pipeline.NewModel(doc)

	require.NoError(t, e.Expand(ctx, model, []any{srv.URL + "/a.yml"}))
	assert.Len(t, model.Includes, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestExpand_ProjectTransportErrors(t *testing.T) {
	t.Parallel()

	const base = "https://gitlab.example.com/api/v4/projects/g%2Fp/repository/files/"
	doer := testutil.NewMockDoerBuilder(t).
		WithResponse(base+"a.yml/raw", "a_job:\n  script: a\n").
		WithError(base+"b.yml/raw", errors.New("connection reset")).
		Build()

	model, log := expand(t, "include:\n  - project: g/p\n    file: [a.yml, b.yml]\n  - project: g/p\n    file: a.yml\n", Options{
		WorkDir: t.TempDir(),
		Client:  doer,
		Getenv:  env(map[string]string{EnvAPIURL: "https://gitlab.example.com/api/v4/", EnvToken: "secret"}),
	})

	assert.Len(t, model.Includes, 2)
	assert.Contains(t, model.View, "a_job")
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "connection reset")
	doer.AssertCallCount(t, base+"a.yml/raw", 1)
	doer.AssertCallCount(t, base+"b.yml/raw", 1)
	for _, call := range doer.GetCalls() {
		assert.Equal(t, "Bearer secret", call.Authorization)
	}
}

func TestExpand_Project(t *testing.T) {
	t.Parallel()

	seen := &requests{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if strings.Contains(r.URL.EscapedPath(), "missing") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "project_job:\n  script: p\n")
	}))
	t.Cleanup(srv.Close)

	model, log := expand(t, `include:
  - project: group/proj
    ref: v1
    file:
      - ci/build.yml
      - missing.yml
`, Options{
		WorkDir: t.TempDir(),
		Client:  srv.Client(),
		Getenv:  env(map[string]string{EnvAPIURL: srv.URL + "/api/v4", EnvToken: "secret"}),
	})

	assert.Len(t, model.Includes, 1)
	assert.Contains(t, model.View, "project_job")
	assert.Equal(t, []string{
		"/api/v4/projects/group%2Fproj/repository/files/ci%2Fbuild.yml/raw?ref=v1",
		"/api/v4/projects/group%2Fproj/repository/files/missing.yml/raw?ref=v1",
	}, seen.all())
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "missing.yml")
}

func TestExpand_ProjectAndComponentNeedEnvironment(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		vars    map[string]string
		missing string
	}{
		"no api url": {vars: map[string]string{EnvToken: "secret"}, missing: EnvAPIURL},
		"no token":   {vars: map[string]string{EnvAPIURL: "http://localhost"}, missing: EnvToken},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			model, log := expand(t, "include:\n  - project: g/p\n    file: a.yml\n  - component: g/p/tool@1.0\n", Options{
				WorkDir: t.TempDir(),
				Getenv:  env(tt.vars),
			})

			assert.Empty(t, model.Includes)
			require.Len(t, log.warnings, 2)
			for _, w := range log.warnings {
				assert.Contains(t, w, tt.missing)
			}
		})
	}
}

const componentFile = `spec:
  inputs:
    level:
      default: low
    stage:
      default: test
---
scan-$[[ inputs.stage ]]:
  stage: $[[ inputs.stage ]]
  variables:
    LEVEL: $[[ inputs.level ]]
    OTHER: $[[ inputs.nope ]]
  script: scan --level=$[[inputs.level]]
`

func TestExpand_Component(t *testing.T) {
	t.Parallel()

	seen := &requests{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		fmt.Fprint(w, componentFile)
	}))
	t.Cleanup(srv.Close)

	model, log := expand(t, `include:
  - component: gitlab.example.com/group/proj/tool@1.0
    inputs:
      level: high
`, Options{
		WorkDir: t.TempDir(),
		Client:  srv.Client(),
		Getenv: env(map[string]string{
			EnvAPIURL:     srv.URL,
			EnvToken:      "secret",
			EnvServerFQDN: "gitlab.example.com",
		}),
	})

	assert.Equal(t, []string{"/projects/group%2Fproj/repository/files/templates%2Ftool.yml/raw?ref=1.0"}, seen.all())
	require.Len(t, model.Includes, 1)
	assert.Equal(t, map[string]any{
		"stage": "test",
		"variables": map[string]any{
			"LEVEL": "high",
			"OTHER": Unresolved,
		},
		"script": "scan --level=high",
	}, model.View["scan-test"])
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "inputs.nope")
}

func TestExpand_ComponentLatestHasNoRef(t *testing.T) {
	t.Parallel()

	seen := &requests{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		fmt.Fprint(w, "spec:\n  inputs: {}\n")
	}))
	t.Cleanup(srv.Close)

	model, log := expand(t, "include:\n  - component: group/proj/tool@latest\n", Options{
		WorkDir: t.TempDir(),
		Client:  srv.Client(),
		Getenv:  env(map[string]string{EnvAPIURL: srv.URL, EnvToken: "secret"}),
	})

	assert.Equal(t, []string{"/projects/group%2Fproj/repository/files/templates%2Ftool.yml/raw"}, seen.all())
	assert.Empty(t, model.Includes)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "could not get component documents")
}

func TestExpand_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "job:\n  script: x\n")
	}))
	t.Cleanup(srv.Close)

	e, err := NewExpander(Options{WorkDir: t.TempDir(), Client: srv.Client(), Getenv: env(nil)})
	require.NoError(t, err)
	doc, err := document.Parse(".gitlab-ci.yml", nil)
	require.NoError(t, err)
	model, _ := pipeline.NewModel(doc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = e.Expand(ctx, model, []any{srv.URL + "/a.yml"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, model.Includes)
}

func TestDeepMerge(t *testing.T) {
	t.Parallel()

	target := map[string]any{
		"level": map[string]any{"default": "low", "options": []any{"low", "high"}},
		"stage": map[string]any{"default": "test"},
	}
	deepMerge(target, map[string]any{
		"level": "high",
		"stage": map[string]any{"default": "build"},
		"extra": 1,
	})

	assert.Equal(t, map[string]any{
		"level": "high",
		"stage": map[string]any{"default": "build"},
		"extra": 1,
	}, target)
}

func TestLookupInput(t *testing.T) {
	t.Parallel()

	values := map[string]any{"inputs": map[string]any{
		"name":      "app",
		"count":     3,
		"level":     map[string]any{"default": "low"},
		"empty":     map[string]any{"default": nil},
		"nodefault": map[string]any{"type": "string"},
	}}

	tests := map[string]struct {
		path     string
		expected string
		ok       bool
	}{
		"string":        {path: "inputs.name", expected: "app", ok: true},
		"number":        {path: "inputs.count", expected: "3", ok: true},
		"default":       {path: "inputs.level", expected: "low", ok: true},
		"null default":  {path: "inputs.empty", expected: "", ok: true},
		"no default":    {path: "inputs.nodefault", ok: false},
		"missing":       {path: "inputs.nope", ok: false},
		"past a scalar": {path: "inputs.name.x", expected: "app", ok: true},
		"unknown root":  {path: "other", ok: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := lookupInput(values, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
