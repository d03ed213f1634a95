package policy

import (
	"cmp"
	"context"
	"embed"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

//go:embed rego/*.rego
var builtinPolicies embed.FS

// Query evaluated against the generated content. Policies add findings by
// defining `finding contains {"section": ..., "message": ...}` rules in
// package review.
const Query = "data.review"

// Finding is a problem a policy reported in the generated content
type Finding struct {
	Section model.Section `json:"section"`
	Message string        `json:"message"`
}

// printHook forwards Rego print() output to the logger
type printHook struct {
	ctx context.Context
}

func (h *printHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Reviewer checks generated content against Rego policies. The built-in
// policy checks the YouTube metadata limits; policies from a directory are
// evaluated together with it.
type Reviewer struct {
	query *rego.PreparedEvalQuery
}

type config struct {
	dir      string
	builtins bool
}

type Option func(*config)

// WithPolicyDir adds every .rego file in dir
func WithPolicyDir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithoutBuiltin skips the built-in YouTube policy
func WithoutBuiltin() Option {
	return func(c *config) {
		c.builtins = false
	}
}

func New(ctx context.Context, opts ...Option) (*Reviewer, error) {
	cfg := config{builtins: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	modules, err := loadModules(cfg)
	if err != nil {
		return nil, err
	}

	options := make([]func(*rego.Rego), 0, len(modules)+2)
	options = append(options, rego.Query(Query), rego.EnablePrintStatements(true))
	options = append(options, modules...)

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare policy query", goerr.V("query", Query))
	}

	return &Reviewer{query: &prepared}, nil
}

// Review evaluates the policies and returns the findings ordered by section
func (r *Reviewer) Review(ctx context.Context, content *model.GeneratedContent) ([]Finding, error) {
	if content == nil {
		return nil, nil
	}

	rs, err := r.query.Eval(ctx, rego.EvalInput(reviewInput(content)), rego.EvalPrintHook(&printHook{ctx: ctx}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate policy")
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("invalid policy result: not an object")
	}
	raw, ok := data["finding"]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, goerr.New("invalid policy result: finding is not a set")
	}

	findings := make([]Finding, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, goerr.New("invalid finding in policy result", goerr.V("finding", item))
		}
		section, _ := m["section"].(string)
		message, _ := m["message"].(string)
		if message == "" {
			return nil, goerr.New("finding has no message", goerr.V("finding", item))
		}
		findings = append(findings, Finding{Section: model.Section(section), Message: message})
	}

	order := make(map[model.Section]int)
	for i, s := range model.Sections() {
		order[s] = i
	}
	slices.SortFunc(findings, func(a, b Finding) int {
		if c := cmp.Compare(order[a.Section], order[b.Section]); c != 0 {
			return c
		}
		return cmp.Compare(a.Message, b.Message)
	})

	return findings, nil
}

func reviewInput(content *model.GeneratedContent) map[string]any {
	list := func(v []string) []any {
		out := make([]any, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	}

	return map[string]any{
		"script":           content.Script,
		"titles":           list(content.Titles),
		"tags":             list(content.Tags),
		"description":      content.Description,
		"thumbnailPrompts": list(content.ThumbnailPrompts),
	}
}
