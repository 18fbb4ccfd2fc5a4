// Package scenario replays YAML scripts of deployments and calls against an
// engine. Every step must end with its expected result code, success unless
// stated otherwise.
package scenario

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"gopkg.in/yaml.v3"
)

// Scenario is the top-level document.
type Scenario struct {
	// Accounts are named in order; the n-th (from 1) is account 1:n.
	Accounts []string `yaml:"accounts"`
	Steps    []Step   `yaml:"steps"`
}

// Step is one deployment, call or height advance. Exactly one of Deploy,
// Call and Advance is set.
type Step struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`

	Deploy  string `yaml:"deploy"`
	Call    string `yaml:"call"`
	Advance uint64 `yaml:"advance"`

	Op     uint64            `yaml:"op"`
	Args   []Arg             `yaml:"args"`
	Parcel map[string]uint64 `yaml:"parcel"`

	// Save names the deployed id, or the id returned in a call's data.
	Save string `yaml:"save"`
	// SaveParcel names the ids of the response parcel in order.
	SaveParcel []string `yaml:"save_parcel"`
	// Expect is a result code such as tecK_NOT_INCREASING.
	Expect string `yaml:"expect"`
}

// Arg is one call argument:
//
//	1000            a word
//	str:US Dollar   a length-prefixed string
//	path:USD,EUR    a counted list of ids
//	USD or 2:1      an id, by name or literally
type Arg string

// UnmarshalYAML accepts any scalar, so numbers need no quoting.
func (a *Arg) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: argument must be a scalar", n.Line)
	}
	*a = Arg(n.Value)
	return nil
}

// Result is the outcome of one step.
type Result struct {
	Step     int
	Name     string
	Code     ter.Result
	Message  string
	Deployed asset.ID
	Data     []byte
	Parcel   asset.Parcel
}

func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s: %s", r.Step, r.Name, r.Code)
	if !r.Deployed.IsZero() {
		fmt.Fprintf(&b, " deployed=%s", r.Deployed)
	}
	if len(r.Data) > 0 {
		fmt.Fprintf(&b, " data=%s", hex.EncodeToString(r.Data))
	}
	if len(r.Parcel) > 0 {
		fmt.Fprintf(&b, " parcel=%s", r.Parcel)
	}
	if r.Code != ter.TesSUCCESS {
		fmt.Fprintf(&b, " (%s)", r.Message)
	}
	return b.String()
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a scenario, rejecting unknown fields.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	for i, st := range s.Steps {
		set := 0
		for _, ok := range []bool{st.Deploy != "", st.Call != "", st.Advance != 0} {
			if ok {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("step %d: exactly one of deploy, call and advance is required", i+1)
		}
	}
	return &s, nil
}

// Heights is advanced by "advance" steps.
type Heights interface {
	Advance(n uint64) uint64
}

// Runner applies scenarios to an engine.
type Runner struct {
	engine  *runtime.Engine
	heights Heights
	names   map[string]asset.ID
}

// NewRunner creates a runner. heights may be nil when no step advances.
func NewRunner(engine *runtime.Engine, heights Heights) *Runner {
	return &Runner{engine: engine, heights: heights, names: make(map[string]asset.ID)}
}

// Lookup returns the id bound to name by an account list or a save.
func (r *Runner) Lookup(name string) (asset.ID, bool) {
	id, ok := r.names[name]
	return id, ok
}

// Run applies every step in order and stops at the first step whose code
// differs from its expectation. The results of the steps applied so far are
// returned either way.
func (r *Runner) Run(ctx context.Context, s *Scenario) ([]Result, error) {
	for i, name := range s.Accounts {
		if err := r.bind(name, asset.Account(uint64(i+1))); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(s.Steps))
	for i, st := range s.Steps {
		res, err := r.step(ctx, i+1, st)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, res.Name, err)
		}
		results = append(results, res)

		want := ter.TesSUCCESS
		if st.Expect != "" {
			want, err = ter.Parse(st.Expect)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if res.Code != want {
			return results, fmt.Errorf("step %d (%s): expected %s, got %s: %s", i+1, res.Name, want, res.Code, res.Message)
		}
		if res.Code == ter.TesSUCCESS {
			if err := r.save(st, res); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return results, nil
}

func (r *Runner) step(ctx context.Context, n int, st Step) (Result, error) {
	res := Result{Step: n, Name: st.Name}
	if res.Name == "" {
		switch {
		case st.Deploy != "":
			res.Name = "deploy " + st.Deploy
		case st.Call != "":
			res.Name = fmt.Sprintf("call %s op %d", st.Call, st.Op)
		default:
			res.Name = fmt.Sprintf("advance %d", st.Advance)
		}
	}

	if st.Advance != 0 {
		if r.heights == nil {
			return res, fmt.Errorf("no height source to advance")
		}
		r.heights.Advance(st.Advance)
		return res, nil
	}

	from, err := r.resolve(st.From)
	if err != nil {
		return res, fmt.Errorf("from: %w", err)
	}
	words, err := r.words(st.Args)
	if err != nil {
		return res, err
	}
	parcel, err := r.parcel(st.Parcel)
	if err != nil {
		return res, err
	}
	call := runtime.NewCall(st.Op, words...)

	var out runtime.ApplyResult
	if st.Deploy != "" {
		res.Deployed, out = r.engine.Deploy(ctx, from, runtime.Kind(st.Deploy), &call, parcel)
	} else {
		target, err := r.resolve(st.Call)
		if err != nil {
			return res, fmt.Errorf("call: %w", err)
		}
		out = r.engine.Apply(ctx, runtime.Message{Caller: from, Target: target, Call: call, Parcel: parcel})
	}

	res.Code, res.Message = out.Result, out.Message
	if out.Response != nil {
		res.Data, res.Parcel = out.Response.Data, out.Response.Parcel
	}
	return res, nil
}

func (r *Runner) save(st Step, res Result) error {
	if st.Save != "" {
		id := res.Deployed
		if st.Deploy == "" {
			var err error
			if id, err = runtime.ReadID(res.Data); err != nil {
				return fmt.Errorf("save %s: %w", st.Save, err)
			}
		}
		if err := r.bind(st.Save, id); err != nil {
			return err
		}
	}
	ids := res.Parcel.IDs()
	if len(st.SaveParcel) > len(ids) {
		return fmt.Errorf("save_parcel names %d ids, response carries %d", len(st.SaveParcel), len(ids))
	}
	for i, name := range st.SaveParcel {
		if err := r.bind(name, ids[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) bind(name string, id asset.ID) error {
	if _, err := asset.Parse(name); err == nil || strings.ContainsAny(name, ",") || name == "" {
		return fmt.Errorf("invalid name %q", name)
	}
	r.names[name] = id
	return nil
}

func (r *Runner) resolve(ref string) (asset.ID, error) {
	if id, ok := r.names[ref]; ok {
		return id, nil
	}
	if id, err := asset.Parse(ref); err == nil {
		return id, nil
	}
	return asset.ID{}, fmt.Errorf("unknown name %q", ref)
}

func (r *Runner) words(args []Arg) ([]uint64, error) {
	var out []uint64
	for _, a := range args {
		s := string(a)
		switch {
		case strings.HasPrefix(s, "str:"):
			out = append(out, runtime.StringWords(strings.TrimPrefix(s, "str:"))...)
		case strings.HasPrefix(s, "path:"):
			var path []asset.ID
			for _, ref := range strings.Split(strings.TrimPrefix(s, "path:"), ",") {
				id, err := r.resolve(strings.TrimSpace(ref))
				if err != nil {
					return nil, fmt.Errorf("path: %w", err)
				}
				path = append(path, id)
			}
			out = append(out, runtime.PathWords(path)...)
		default:
			if v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64); err == nil {
				out = append(out, v)
				continue
			}
			id, err := r.resolve(s)
			if err != nil {
				return nil, fmt.Errorf("argument: %w", err)
			}
			out = append(out, runtime.IDWords(id)...)
		}
	}
	return out, nil
}

// parcel resolves a name->amount map in name order so runs are repeatable.
func (r *Runner) parcel(m map[string]uint64) (asset.Parcel, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var p asset.Parcel
	for _, name := range names {
		id, err := r.resolve(name)
		if err != nil {
			return nil, fmt.Errorf("parcel: %w", err)
		}
		p = p.Pay(id, m[name])
	}
	return p, nil
}
