// Package scenario replays YAML command scripts against an engine and checks
// the resulting state.
package scenario

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gator-social/internal/engine"
	"gator-social/internal/models"
	"gator-social/internal/utils"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultContentHash is used by create steps that give no content_hash.
var DefaultContentHash = strings.Repeat("h", 46)

type Scenario struct {
	Name   string  `yaml:"name"`
	Params Params  `yaml:"params"`
	Steps  []Step  `yaml:"steps"`
	Checks []Check `yaml:"checks"`
}

// Params override engine defaults for the scenario.
type Params struct {
	HandleMinLen *int `yaml:"handle_min_len"`
	HandleMaxLen *int `yaml:"handle_max_len"`
	StrictCID    bool `yaml:"strict_cid"`
}

// Apply returns base with the scenario overrides.
func (p Params) Apply(base engine.Params) engine.Params {
	if p.HandleMinLen != nil {
		base.HandleMinLen = *p.HandleMinLen
	}
	if p.HandleMaxLen != nil {
		base.HandleMaxLen = *p.HandleMaxLen
	}
	if p.StrictCID {
		base.StrictCID = true
	}
	return base
}

// Step is one command. As names the signing account; OnBehalf, when set,
// names a saved space. The id a create step returns is saved under Save.
type Step struct {
	As            string            `yaml:"as"`
	OnBehalf      string            `yaml:"on_behalf"`
	Op            string            `yaml:"op"`
	Args          map[string]string `yaml:"args"`
	Save          string            `yaml:"save"`
	ExpectError   string            `yaml:"expect_error"`
	ErrorContains string            `yaml:"error_contains"`
}

// Check compares one field of an entity, named by its JSON tag, after all
// steps ran. Exactly one of Space, Post, Comment or Account is set.
type Check struct {
	Space   string `yaml:"space"`
	Post    string `yaml:"post"`
	Comment string `yaml:"comment"`
	Account string `yaml:"account"`
	Field   string `yaml:"field"`
	Equals  int64  `yaml:"equals"`
}

func Parse(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	return &sc, nil
}

func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// AccountID maps an alias to a stable account id.
func AccountID(alias string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("gator-social/"+alias))
}

// Runner holds the ids saved by earlier steps.
type Runner struct {
	engine *engine.Engine
	refs   map[string]uint64
}

func NewRunner(e *engine.Engine) *Runner {
	return &Runner{engine: e, refs: map[string]uint64{}}
}

// Ref returns the id saved under name.
func (r *Runner) Ref(name string) (uint64, bool) {
	id, ok := r.refs[name]
	return id, ok
}

// Run executes every step and check, stopping at the first mismatch.
func (r *Runner) Run(ctx context.Context, sc *Scenario) error {
	for i, step := range sc.Steps {
		if err := r.step(ctx, step); err != nil {
			return fmt.Errorf("%s: step %d (%s): %w", sc.Name, i+1, step.Op, err)
		}
	}
	for i, check := range sc.Checks {
		if err := r.check(ctx, check); err != nil {
			return fmt.Errorf("%s: check %d: %w", sc.Name, i+1, err)
		}
	}
	return nil
}

func (r *Runner) step(ctx context.Context, step Step) error {
	actor := models.AccountActor(AccountID(step.As))
	if step.OnBehalf != "" {
		space, err := r.id(step.OnBehalf)
		if err != nil {
			return err
		}
		actor = models.SpaceActor(actor.Account, models.SpaceID(space))
	}

	id, err := r.dispatch(ctx, actor, step.Op, args(step.Args))
	if step.ExpectError != "" {
		if err == nil {
			return fmt.Errorf("expected %s error, got success", step.ExpectError)
		}
		if code := utils.CodeOf(err); code != step.ExpectError {
			return fmt.Errorf("expected %s error, got %s: %w", step.ExpectError, code, err)
		}
		if step.ErrorContains != "" && !strings.Contains(err.Error(), step.ErrorContains) {
			return fmt.Errorf("error %q does not mention %q", err.Error(), step.ErrorContains)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if step.Save != "" {
		r.refs[step.Save] = id
	}
	return nil
}

func (r *Runner) check(ctx context.Context, c Check) error {
	var (
		entity interface{}
		err    error
		label  string
	)
	switch {
	case c.Space != "":
		label = "space " + c.Space
		entity, err = withID(r, c.Space, func(id uint64) (interface{}, error) {
			return r.engine.Space(ctx, models.SpaceID(id))
		})
	case c.Post != "":
		label = "post " + c.Post
		entity, err = withID(r, c.Post, func(id uint64) (interface{}, error) {
			return r.engine.Post(ctx, models.PostID(id))
		})
	case c.Comment != "":
		label = "comment " + c.Comment
		entity, err = withID(r, c.Comment, func(id uint64) (interface{}, error) {
			return r.engine.Comment(ctx, models.CommentID(id))
		})
	case c.Account != "":
		label = "account " + c.Account
		entity, err = r.accountFields(ctx, AccountID(c.Account))
	default:
		return fmt.Errorf("check names no entity")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}

	raw, err := sonic.Marshal(entity)
	if err != nil {
		return err
	}
	var fields map[string]interface{}
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return err
	}
	got, ok := fields[c.Field].(float64)
	if !ok {
		return fmt.Errorf("%s has no numeric field %q", label, c.Field)
	}
	if int64(got) != c.Equals {
		return fmt.Errorf("%s.%s = %d, want %d", label, c.Field, int64(got), c.Equals)
	}
	return nil
}

// accountFields flattens the social counters with the effective reputation
// so untouched accounts can be checked too.
func (r *Runner) accountFields(ctx context.Context, account uuid.UUID) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	social, err := r.engine.SocialAccount(ctx, account)
	switch {
	case utils.IsErrorCode(err, utils.ErrNotFound):
		fields["followers_count"] = 0
		fields["following_accounts_count"] = 0
		fields["following_spaces_count"] = 0
	case err != nil:
		return nil, err
	default:
		fields["followers_count"] = social.Followers
		fields["following_accounts_count"] = social.FollowingAccts
		fields["following_spaces_count"] = social.FollowingSpaces
	}
	rep, err := r.engine.Reputation(ctx, account)
	if err != nil {
		return nil, err
	}
	fields["reputation"] = rep
	return fields, nil
}

func withID(r *Runner, ref string, load func(uint64) (interface{}, error)) (interface{}, error) {
	id, err := r.id(ref)
	if err != nil {
		return nil, err
	}
	return load(id)
}

// id resolves a saved name or a literal number.
func (r *Runner) id(ref string) (uint64, error) {
	if id, ok := r.refs[ref]; ok {
		return id, nil
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown reference %q", ref)
	}
	return id, nil
}

type args map[string]string

func (a args) has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a args) optional(name string) *string {
	v, ok := a[name]
	if !ok {
		return nil
	}
	return &v
}

func (a args) contentHash(fallback string) string {
	if v, ok := a["content_hash"]; ok {
		return v
	}
	return fallback
}

func (a args) flag(name string) (*bool, error) {
	v, ok := a[name]
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("arg %s: %w", name, err)
	}
	return &b, nil
}
