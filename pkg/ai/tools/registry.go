package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"
)

const moduleName = "TOOLS"

// Records is the record-service surface offered to models.
type Records interface {
	GetCandidate(ctx context.Context, token string, id int) (*recordclient.Candidate, error)
	ListCandidates(ctx context.Context, token string, opts recordclient.ListOptions) (*recordclient.Page[recordclient.Candidate], error)
	SearchCandidates(ctx context.Context, token, query string) (*recordclient.Page[recordclient.Candidate], error)
	CandidateMetrics(ctx context.Context, token string) (map[string]interface{}, error)
	OverallMetrics(ctx context.Context, token string) (map[string]interface{}, error)
	RecentActivities(ctx context.Context, token string, limit int) ([]map[string]interface{}, error)
	ListLookups(ctx context.Context, token string, kind store.LookupKind) ([]recordclient.Lookup, error)
	ListNotes(ctx context.Context, token string, candidateID int) ([]recordclient.Note, error)
	CreateNote(ctx context.Context, token string, candidateID int, content string) (*recordclient.Note, error)
	DeleteNote(ctx context.Context, token string, id int) error
	ListJobPosts(ctx context.Context, token string, opts recordclient.ListOptions) (*recordclient.Page[recordclient.JobPost], error)
	GetJobPost(ctx context.Context, token string, id int) (*recordclient.JobPost, error)
	CreateJobPost(ctx context.Context, token string, fields map[string]interface{}) (*recordclient.JobPost, error)
	PatchJobPost(ctx context.Context, token string, id int, fields map[string]interface{}) (*recordclient.JobPost, error)
	DeleteJobPost(ctx context.Context, token string, id int) error
	ListUnreadNotifications(ctx context.Context, token string) ([]recordclient.Notification, error)
	ListRecentNotifications(ctx context.Context, token string, limit int) ([]recordclient.Notification, error)
}

// Proposer stages a mutating action behind user confirmation and returns
// the text to show the user.
type Proposer interface {
	Propose(ctx context.Context, sessionID, token string, action *store.PendingAction) (string, error)
}

type handlerFunc func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error)

type tool struct {
	def llm.ToolDef
	run handlerFunc
}

// Registry holds the fixed tool set. It is safe for concurrent use; per
// request state lives in the executor returned by Bind.
type Registry struct {
	records  Records
	proposer Proposer
	logger   logger.ILogger
	tools    map[string]tool
	order    []string
}

func NewRegistry(records Records, proposer Proposer, log logger.ILogger) *Registry {
	r := &Registry{
		records:  records,
		proposer: proposer,
		logger:   log,
		tools:    make(map[string]tool),
	}
	r.registerReads()
	r.registerWrites()
	r.registerStaged()
	return r
}

func (r *Registry) register(def llm.ToolDef, run handlerFunc) {
	if _, dup := r.tools[def.Name]; dup {
		panic("tools: duplicate tool " + def.Name)
	}
	r.tools[def.Name] = tool{def: def, run: run}
	r.order = append(r.order, def.Name)
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Definitions() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Bind returns an executor that runs tools on behalf of one session.
func (r *Registry) Bind(sessionID, token string) llm.ToolExecutor {
	return &executor{registry: r, sessionID: sessionID, token: token}
}

type executor struct {
	registry  *Registry
	sessionID string
	token     string
}

type call struct {
	*executor
	records  Records
	proposer Proposer
}

func (e *executor) Definitions() []llm.ToolDef {
	return e.registry.Definitions()
}

func (e *executor) Execute(ctx context.Context, tc llm.ToolCall) llm.ToolOutcome {
	t, ok := e.registry.tools[tc.Name]
	if !ok {
		return llm.ToolOutcome{Content: fmt.Sprintf("Error: unknown tool %q", tc.Name), IsError: true}
	}
	args := tc.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	c := &call{executor: e, records: e.registry.records, proposer: e.registry.proposer}
	out, err := t.run(ctx, c, args)
	if err != nil {
		e.registry.logger.Warn(moduleName, "Tool failed", map[string]interface{}{
			"tool":  tc.Name,
			"error": err.Error(),
		})
		return llm.ToolOutcome{Content: "Error: " + recordclient.Reason(err), IsError: true}
	}
	return out
}

func text(s string) (llm.ToolOutcome, error) {
	return llm.ToolOutcome{Content: s}, nil
}

// wrote marks a result whose call already changed records.
func wrote(s string) (llm.ToolOutcome, error) {
	return llm.ToolOutcome{Content: s, Wrote: true}, nil
}

// stage hands the action to the proposer. The proposer's reply ends the
// tool loop whether or not anything was staged.
func (c *call) stage(ctx context.Context, action *store.PendingAction) (llm.ToolOutcome, error) {
	msg, err := c.proposer.Propose(ctx, c.sessionID, c.token, action)
	if err != nil {
		return llm.ToolOutcome{}, err
	}
	return llm.ToolOutcome{Content: msg, Staged: true}, nil
}

// FlexInt accepts 42, "42" and 42.0 since models are loose with numbers.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*f = FlexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", raw)
	}
	*f = FlexInt(int(v))
	return nil
}

func decode(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func ints(in []FlexInt) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, v := range in {
		if v <= 0 || seen[int(v)] {
			continue
		}
		seen[int(v)] = true
		out = append(out, int(v))
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
