package include

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/progress"
	"github.com/smurf667/pipeline-consigliere/internal/report"
)

// Environment variables read when resolving project and component includes.
const (
	EnvAPIURL     = "CI_API_V4_URL"
	EnvToken      = "ACCESS_TOKEN"
	EnvServerFQDN = "CI_SERVER_FQDN"
)

// DefaultCacheSize is the number of fetched bodies kept per run.
const DefaultCacheSize = 64

// Doer sends HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sink takes resolved documents and returns the include values they declare.
type Sink interface {
	Add(doc *document.Document) []any
}

// Progress is notified around every include resolution.
type Progress interface {
	StartStep(step progress.StepInfo) error
	CompleteStep(step progress.StepInfo, documents int)
	FailStep(step progress.StepInfo, err error)
}

// Options configures an Expander. Zero values select the defaults.
type Options struct {
	Client Doer
	// Getenv looks up environment variables; os.Getenv when nil.
	Getenv func(string) string
	// WorkDir is the base of local includes; the current directory when empty.
	WorkDir   string
	CacheSize int
	// Timeout bounds every single fetch; zero means no limit.
	Timeout  time.Duration
	Log      report.Logger
	Progress Progress
}

// Expander resolves include directives breadth-first.
type Expander struct {
	client   Doer
	getenv   func(string) string
	workDir  string
	timeout  time.Duration
	log      report.Logger
	progress Progress
	cache    *lru.Cache[string, []byte]
}

// NewExpander creates an expander from opts.
func NewExpander(opts Options) (*Expander, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating fetch cache: %w", err)
	}
	e := &Expander{
		client:   opts.Client,
		getenv:   opts.Getenv,
		workDir:  opts.WorkDir,
		timeout:  opts.Timeout,
		log:      opts.Log,
		progress: opts.Progress,
		cache:    cache,
	}
	if e.client == nil {
		e.client = http.DefaultClient
	}
	if e.getenv == nil {
		e.getenv = os.Getenv
	}
	if e.workDir == "" {
		if e.workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
	}
	if e.log == nil {
		e.log = report.Discard{}
	}
	return e, nil
}

// Expand resolves the include values of the root document and everything
// they transitively include. Each resolved document is handed to sink, in
// discovery order, and the includes it declares are queued behind the ones
// already known. An include naming a location that was already resolved is
// skipped, which also ends include cycles. Resolution problems are logged and
// skipped; only a cancelled context stops the expansion.
func (e *Expander) Expand(ctx context.Context, sink Sink, includes []any) error {
	var queue []Directive
	enqueue := func(values []any) {
		for _, v := range values {
			directives, err := ParseDirectives(v)
			if err != nil {
				e.log.Warnf("%v", err)
			}
			queue = append(queue, directives...)
		}
	}
	enqueue(includes)

	seen := make(map[string]struct{})
	for done := 0; len(queue) > 0; {
		d := queue[0]
		queue = queue[1:]
		id := e.identity(d)
		if _, ok := seen[id]; ok {
			e.log.Warnf("Skipping include %s: already included", d)
			continue
		}
		seen[id] = struct{}{}
		done++

		step := progress.StepInfo{Name: d.String(), Number: done, Total: done + len(queue)}
		e.startStep(step)

		docs, err := e.resolve(ctx, d)
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.failStep(step, ctxErr)
			return ctxErr
		}
		if err != nil {
			e.failStep(step, err)
			e.log.Warnf("Skipping include %s: %v", d, err)
			continue
		}
		e.completeStep(step, len(docs))
		for _, doc := range docs {
			enqueue(sink.Add(doc))
		}
	}
	return nil
}

// identity names what d resolves to, so that an include reached again
// through another document, or through a cycle, is resolved only once.
func (e *Expander) identity(d Directive) string {
	switch d.Kind {
	case Local:
		return "local:" + e.localPath(d.Location)
	case Remote:
		return "remote:" + e.expandVariables(d.Location)
	case Project:
		return fmt.Sprintf("project:%s@%s:%s", e.expandVariables(d.Project.Project), d.Project.Ref,
			strings.Join(d.Project.Files, ","))
	case Component:
		return fmt.Sprintf("component:%s@%s:%v", d.Component.Path, d.Component.Version, d.Component.Inputs)
	}
	return d.Kind.String() + ":" + d.String()
}

func (e *Expander) resolve(ctx context.Context, d Directive) ([]*document.Document, error) {
	switch d.Kind {
	case Local:
		return e.local(d.Location)
	case Remote:
		return e.remote(ctx, d.Location)
	case Project:
		return e.project(ctx, d.Project)
	case Component:
		return e.component(ctx, d.Component)
	}
	return nil, fmt.Errorf("unsupported include kind %s", d.Kind)
}

func (e *Expander) localPath(path string) string {
	return filepath.Join(e.workDir, e.expandVariables(strings.TrimPrefix(path, "/")))
}

func (e *Expander) local(path string) ([]*document.Document, error) {
	name := e.localPath(path)
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s does not exist", name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return e.parse(name, data), nil
}

func (e *Expander) remote(ctx context.Context, target string) ([]*document.Document, error) {
	url := e.expandVariables(target)
	body, err := e.fetch(ctx, url, "")
	if err != nil {
		return nil, err
	}
	return e.parse(url, body), nil
}

func (e *Expander) project(ctx context.Context, src *ProjectSource) ([]*document.Document, error) {
	api, token, err := e.credentials(Project, src.Project)
	if err != nil {
		return nil, err
	}
	project := e.expandVariables(src.Project)
	var docs []*document.Document
	for _, file := range src.Files {
		url := rawFileURL(api, project, file, src.Ref)
		body, err := e.fetch(ctx, url, token)
		if err != nil {
			e.log.Warnf("Error fetching %s: %v", url, err)
			continue
		}
		docs = append(docs, e.parse(url, body)...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no file of project %s could be fetched", project)
	}
	return docs, nil
}

// parse keeps a document with syntax errors, as an empty one, so that the
// include still counts as resolved.
func (e *Expander) parse(name string, data []byte) []*document.Document {
	doc, err := document.Parse(name, data)
	if err != nil {
		e.log.Warnf("Parsing errors exist in %s: %v", name, err)
	}
	return []*document.Document{doc}
}

func (e *Expander) credentials(kind Kind, name string) (api, token string, err error) {
	api = e.getenv(EnvAPIURL)
	if api == "" {
		return "", "", fmt.Errorf("the environment variable %s must be set in order to resolve %s references (%s)", EnvAPIURL, kind, name)
	}
	token = e.getenv(EnvToken)
	if token == "" {
		return "", "", fmt.Errorf("the environment variable %s (repository read) must be set in order to resolve %s references (%s)", EnvToken, kind, name)
	}
	return api, token, nil
}

var variable = regexp.MustCompile(`\$([A-Z_]+[A-Z]?)`)

// expandVariables replaces $NAME with the value of the environment variable.
// Unset variables are left as they are.
func (e *Expander) expandVariables(s string) string {
	return variable.ReplaceAllStringFunc(s, func(match string) string {
		if v := e.getenv(match[1:]); v != "" {
			return v
		}
		return match
	})
}

func (e *Expander) startStep(step progress.StepInfo) {
	if e.progress != nil {
		_ = e.progress.StartStep(step)
	}
}

func (e *Expander) completeStep(step progress.StepInfo, documents int) {
	if e.progress != nil {
		e.progress.CompleteStep(step, documents)
	}
}

func (e *Expander) failStep(step progress.StepInfo, err error) {
	if e.progress != nil {
		e.progress.FailStep(step, err)
	}
}
