package mutelist

import (
	"log/slog"

	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/pattern"
)

// Decision is the outcome of evaluating one finding. When Muted is true,
// Account and Check name the rule that muted it. Excepted reports that
// at least one matching rule was cancelled by its exceptions.
type Decision struct {
	Muted    bool   `json:"muted"`
	Account  string `json:"account,omitempty"`
	Check    string `json:"check,omitempty"`
	Excepted bool   `json:"excepted,omitempty"`
}

// Evaluator decides whether findings are muted by a Document. It holds no
// per-call state and is safe for concurrent use.
type Evaluator struct {
	doc     *Document
	matcher *pattern.Matcher
	logger  *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMatcher sets the pattern matcher. The default uses the process-wide
// regex cache.
func WithMatcher(m *pattern.Matcher) Option {
	return func(e *Evaluator) { e.matcher = m }
}

// WithLogger sets the logger used for debug tracing of mute decisions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator returns an evaluator for doc. A nil doc mutes nothing.
func NewEvaluator(doc *Document, opts ...Option) *Evaluator {
	e := &Evaluator{doc: doc}
	for _, o := range opts {
		o(e)
	}
	if e.doc == nil {
		e.doc = Empty()
	}
	if e.matcher == nil {
		e.matcher = pattern.New(nil)
	}
	e.logger = orDefault(e.logger)
	return e
}

// Document returns the evaluated document.
func (e *Evaluator) Document() *Document {
	return e.doc
}

// IsMuted reports whether f is muted for accountUID. An empty accountUID
// falls back to f.AccountUID. Findings whose status is not FAIL are never
// muted.
func (e *Evaluator) IsMuted(f *finding.Finding, accountUID string) bool {
	return e.Evaluate(f, accountUID).Muted
}

// Evaluate is IsMuted with the matching rule reported.
//
// Every account entry matching the account and every check entry matching
// the check id is tried; overlapping entries are additive, so the finding
// is muted when any of them mutes it.
func (e *Evaluator) Evaluate(f *finding.Finding, accountUID string) Decision {
	var d Decision
	if f == nil || f.Status != finding.StatusFail || e.doc.IsEmpty() {
		return d
	}
	if accountUID == "" {
		accountUID = f.AccountUID
	}

	for _, acc := range e.doc.accounts {
		if !e.matcher.Match(acc.pattern, accountUID) {
			continue
		}
		for _, chk := range acc.checks {
			if !e.matcher.Match(chk.pattern, f.CheckID) {
				continue
			}
			if !e.ruleMatches(&chk.rule, f) {
				continue
			}
			if e.excepted(chk.rule.Exceptions, f, accountUID) {
				d.Excepted = true
				continue
			}
			d.Muted = true
			d.Account = acc.pattern
			d.Check = chk.pattern
			e.logger.Debug("finding muted",
				slog.String("check_id", f.CheckID),
				slog.String("account_uid", accountUID),
				slog.String("resource_uid", f.ResourceUID),
				slog.String("rule", indexPath(indexPath("Accounts", acc.pattern)+".Checks", chk.pattern)),
			)
			return d
		}
	}
	return d
}

// ruleMatches applies the rule dimensions. An empty list matches anything.
func (e *Evaluator) ruleMatches(r *Rule, f *finding.Finding) bool {
	if len(r.Regions) > 0 && !e.matcher.MatchAny(r.Regions, f.Region) {
		return false
	}
	if len(r.Resources) > 0 && !e.matcher.MatchAny(r.Resources, resourceCandidates(f)...) {
		return false
	}
	return e.matcher.MatchTags(r.Tags, f.ResourceTags)
}

// excepted reports whether any populated exception dimension matches.
func (e *Evaluator) excepted(x *Exceptions, f *finding.Finding, accountUID string) bool {
	if x.isEmpty() {
		return false
	}
	switch {
	case len(x.Accounts) > 0 && e.matcher.MatchAny(x.Accounts, accountUID):
		return true
	case len(x.Regions) > 0 && e.matcher.MatchAny(x.Regions, f.Region):
		return true
	case len(x.Resources) > 0 && e.matcher.MatchAny(x.Resources, resourceCandidates(f)...):
		return true
	case len(x.Tags) > 0 && e.matcher.MatchTags(x.Tags, f.ResourceTags):
		return true
	}
	return false
}

func resourceCandidates(f *finding.Finding) []string {
	if f.ResourceName == "" || f.ResourceName == f.ResourceUID {
		return []string{f.ResourceUID}
	}
	return []string{f.ResourceUID, f.ResourceName}
}

// IsMuted evaluates a single finding against doc without memoization.
func IsMuted(doc *Document, f *finding.Finding, accountUID string) bool {
	return NewEvaluator(doc).IsMuted(f, accountUID)
}

type memoKey struct {
	id      finding.Key
	subject finding.Key
	account string
}

// Pass memoizes decisions for one evaluation run, keyed by finding
// identity, resource name and tags, and account. Duplicate findings in a batch are evaluated once.
// A Pass is not safe for concurrent use.
type Pass struct {
	eval *Evaluator
	memo map[memoKey]Decision
	hits int
}

// NewPass starts a memoized evaluation run.
func (e *Evaluator) NewPass() *Pass {
	return &Pass{eval: e, memo: make(map[memoKey]Decision)}
}

// Evaluate returns the memoized decision for f, computing it on first use.
func (p *Pass) Evaluate(f *finding.Finding, accountUID string) Decision {
	if f == nil || f.Status != finding.StatusFail {
		return Decision{}
	}
	if accountUID == "" {
		accountUID = f.AccountUID
	}
	k := memoKey{id: f.Identity().Key(), subject: f.SubjectKey(), account: accountUID}
	if d, ok := p.memo[k]; ok {
		p.hits++
		return d
	}
	d := p.eval.Evaluate(f, accountUID)
	p.memo[k] = d
	return d
}

// IsMuted is Evaluate reduced to its verdict.
func (p *Pass) IsMuted(f *finding.Finding, accountUID string) bool {
	return p.Evaluate(f, accountUID).Muted
}

// Hits returns how many decisions were served from the memo.
func (p *Pass) Hits() int {
	return p.hits
}

// Len returns the number of memoized decisions.
func (p *Pass) Len() int {
	return len(p.memo)
}

// Apply returns a copy of f with Muted set from the pass decision.
func (p *Pass) Apply(f finding.Finding, accountUID string) (finding.Finding, Decision) {
	d := p.Evaluate(&f, accountUID)
	f.Muted = d.Muted
	return f, d
}

// Mute returns a copy of f marked as muted. Status is left untouched;
// DisplayStatus reports MUTED for failing findings.
func Mute(f finding.Finding) finding.Finding {
	f.Muted = true
	return f
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
