package mapping

import (
	"fmt"
	"regexp"

	"app-reconciler/internal/config"
)

// Rule renames columns matching Pattern using Replace.
type Rule struct {
	Pattern *regexp.Regexp
	Replace string
}

// Rules is an ordered rule list; the first matching rule applies.
type Rules []Rule

// CompileRules compiles configured rules.
func CompileRules(cfgs []config.RuleConfig) (Rules, error) {
	rules := make(Rules, 0, len(cfgs))

	for i, c := range cfgs {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		rules = append(rules, Rule{Pattern: re, Replace: c.Replace})
	}

	return rules, nil
}

// Apply returns the renamed column. ok is false when no rule matched or the
// matching rule left the name unchanged.
func (r Rules) Apply(column string) (string, bool) {
	for _, rule := range r {
		if !rule.Pattern.MatchString(column) {
			continue
		}

		renamed := rule.Pattern.ReplaceAllString(column, rule.Replace)

		return renamed, renamed != column
	}

	return column, false
}
