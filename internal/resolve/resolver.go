package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"app-reconciler/internal/logging"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/match"
	"app-reconciler/internal/workspace"
)

// How a difference was settled.
const (
	OutcomeReplayed = "replayed"
	OutcomeRule     = "rule"
	OutcomeAccepted = "accepted"
	OutcomeOverride = "override"
	OutcomeSkipped  = "skipped"
)

// Options configures a Resolver.
type Options struct {
	// Root is the output directory holding mappings and differences.
	Root  string
	Rules mapping.Rules
	// Prompter asks the operator; nil runs unattended.
	Prompter Prompter
	// Alternatives is how many other candidates a prompt lists.
	Alternatives int
	Logger       *zap.Logger
}

// Result is the outcome of one bucket.
type Result struct {
	Bucket    string
	Rows      []match.Difference
	Unmatched []string
	// Outcomes counts settled rows per Outcome* constant.
	Outcomes map[string]int
}

// Resolver reconciles the columns of buckets.
type Resolver struct {
	opts   Options
	layout mapping.Layout
	logger *zap.Logger
}

// New returns a Resolver.
func New(opts Options) *Resolver {
	return &Resolver{
		opts:   opts,
		layout: mapping.Layout{Root: opts.Root},
		logger: logging.OrNop(opts.Logger),
	}
}

// Run reconciles newColumns against oldColumns for bucket. The differences
// table is rewritten after every row and the unmatched columns are written at
// the end. Decisions taken before an error stay persisted; the bucket only
// counts as reconciled once every difference was settled.
func (r *Resolver) Run(ctx context.Context, bucket string, oldColumns, newColumns []string) (*Result, error) {
	logger := r.logger.With(zap.String("bucket", bucket))

	if err := workspace.ClearDir(r.layout.DifferencesDir(bucket)); err != nil {
		return nil, err
	}

	store := mapping.Open(r.opts.Root, bucket)

	_, completed, err := store.Load()
	if err != nil {
		return nil, err
	}

	pass := match.Diff(oldColumns, newColumns)
	additions := pass.Additions()

	res := &Result{
		Bucket:   bucket,
		Rows:     make([]match.Difference, len(additions)),
		Outcomes: map[string]int{},
	}
	for i, col := range additions {
		res.Rows[i] = match.Difference{Column: col}
	}

	diffPath := r.layout.DifferencesPath(bucket)
	if err := mapping.WriteDifferences(diffPath, res.Rows); err != nil {
		return nil, err
	}

	logger.Info("reconciling columns",
		zap.Int("additions", len(additions)),
		zap.Int("candidates", len(pass.Unmatched())),
		zap.Int("stored", store.Len()),
		zap.Bool("completed_before", completed))

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		d, ok := pass.Next()
		if !ok {
			break
		}

		outcome, err := r.settle(logger, pass, store, completed, &d)
		res.Rows[i] = d

		if err != nil {
			_ = mapping.WriteDifferences(diffPath, res.Rows)
			return res, fmt.Errorf("bucket %s, column %s: %w", bucket, d.Column, err)
		}

		res.Outcomes[outcome]++

		if err := mapping.WriteDifferences(diffPath, res.Rows); err != nil {
			return res, err
		}
	}

	res.Unmatched = pass.Unmatched()
	if err := mapping.WriteUnmatched(r.layout.UnmatchedPath(bucket), res.Unmatched); err != nil {
		return res, err
	}

	if err := store.Complete(); err != nil {
		return res, err
	}

	logger.Info("bucket reconciled",
		zap.Int("replayed", res.Outcomes[OutcomeReplayed]),
		zap.Int("rule", res.Outcomes[OutcomeRule]),
		zap.Int("accepted", res.Outcomes[OutcomeAccepted]+res.Outcomes[OutcomeOverride]),
		zap.Int("skipped", res.Outcomes[OutcomeSkipped]),
		zap.Int("unmatched", len(res.Unmatched)))

	return res, nil
}

// settle decides one difference and records the resolution in d.
func (r *Resolver) settle(logger *zap.Logger, pass *match.Pass, store *mapping.Store, completed bool, d *match.Difference) (string, error) {
	col := d.Column

	if stored, ok := store.Get(col); ok {
		logger.Debug("replacing from stored mapping", zap.String("column", col), zap.String("with", stored))
		d.Resolution = stored
		pass.Accept(stored)

		return OutcomeReplayed, nil
	}

	if completed {
		logger.Debug("skipping, bucket already reconciled", zap.String("column", col))
		return OutcomeSkipped, nil
	}

	if renamed, ok := r.opts.Rules.Apply(col); ok {
		logger.Debug("custom rule", zap.String("column", col), zap.String("with", renamed))
		return OutcomeRule, r.accept(pass, store, d, renamed)
	}

	if !d.HasProposal() || r.opts.Prompter == nil {
		return OutcomeSkipped, nil
	}

	question := r.question(pass, d)

	for {
		answer, err := r.opts.Prompter.Ask(question)
		if err != nil {
			return "", err
		}

		switch {
		case answer == "" || strings.EqualFold(answer, "y"):
			logger.Info("replacing", zap.String("column", col), zap.String("with", d.ClosestMatch))
			return OutcomeAccepted, r.accept(pass, store, d, d.ClosestMatch)
		case strings.EqualFold(answer, "n"):
			logger.Info("skipping", zap.String("column", col))
			return OutcomeSkipped, nil
		case pass.Available(answer):
			logger.Info("replacing", zap.String("column", col), zap.String("with", answer))
			return OutcomeOverride, r.accept(pass, store, d, answer)
		default:
			logger.Warn("invalid column, not an unmatched column", zap.String("answer", answer))
		}
	}
}

func (r *Resolver) accept(pass *match.Pass, store *mapping.Store, d *match.Difference, name string) error {
	d.Resolution = name
	pass.Accept(name)

	return store.Set(d.Column, name)
}

func (r *Resolver) question(pass *match.Pass, d *match.Difference) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Replace:\n%s\nSuggested: %s", d.Column, d.ClosestMatch)

	if r.opts.Alternatives > 0 {
		var others []string

		for _, c := range pass.Candidates(d.Column).Top(r.opts.Alternatives + 1) {
			if c.Name != d.ClosestMatch {
				others = append(others, c.Name)
			}
		}

		if len(others) > r.opts.Alternatives {
			others = others[:r.opts.Alternatives]
		}

		if len(others) > 0 {
			fmt.Fprintf(&b, " (also: %s)", strings.Join(others, ", "))
		}
	}

	b.WriteString("? (Y/n/type your own column name) ")

	return b.String()
}
