package errtable

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Action is the policy response to a classified VK API error.
type Action string

const (
	// ActionBreak marks an error class as non-recoverable for the whole run.
	ActionBreak Action = "break"
	// ActionRetry marks an error class as transient; the call is repeated
	// after an exponential backoff delay.
	ActionRetry Action = "retry"
	// ActionSkip marks an error class as benign; the call is abandoned and
	// the caller receives an absent result instead of an error.
	ActionSkip Action = "skip"
)

// statusPrecedence orders actions for the HTTP-status index. When several
// rules share a MatchedHTTPError value, the retry loop checks skip first,
// then break, then retry, so the index resolves collisions the same way.
var statusPrecedence = map[Action]int{
	ActionSkip:  3,
	ActionBreak: 2,
	ActionRetry: 1,
}

// Rule maps a VK error code to its disposition and the HTTP status code the
// response is rewritten to. The YAML field names follow the error table
// resource format.
type Rule struct {
	Action     Action `yaml:"action"`
	HTTPStatus int    `yaml:"MatchedHTTPError"`
}

// APIError is the {error_code, error_msg} pair VK embeds in response bodies,
// both in execute_errors lists and under the top-level "error" key.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// UnclassifiedError reports a VK error code that has no entry in the table.
// An unmapped code means the retry policy cannot determine a safe action, so
// callers treat it as a contract violation rather than a transient fault.
type UnclassifiedError struct {
	Code int
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("error code %d is not present in the error table", e.Code)
}

// Table holds the error code to rule mapping. It is built once at startup
// and read-only afterwards, so it is safe to share across calls.
type Table struct {
	rules    map[int]Rule
	byStatus map[int]Action
}

// New builds a table from a rule map and precomputes the HTTP status index.
func New(rules map[int]Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("error table is empty")
	}

	byStatus := make(map[int]Action)
	for code, rule := range rules {
		if _, ok := statusPrecedence[rule.Action]; !ok {
			return nil, fmt.Errorf("error code %d: unknown action %q", code, rule.Action)
		}
		if rule.HTTPStatus < 100 || rule.HTTPStatus > 599 {
			return nil, fmt.Errorf("error code %d: invalid MatchedHTTPError %d", code, rule.HTTPStatus)
		}
		if prev, ok := byStatus[rule.HTTPStatus]; !ok || statusPrecedence[rule.Action] > statusPrecedence[prev] {
			byStatus[rule.HTTPStatus] = rule.Action
		}
	}

	return &Table{rules: rules, byStatus: byStatus}, nil
}

// Load reads the error table from a YAML resource. A missing or unparseable
// file is a startup fault; the client cannot run without a complete table.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read error table: %w", err)
	}

	var rules map[int]Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse error table: %w", err)
	}

	return New(rules)
}

// Classify returns the rule for a VK error code. Unmapped codes fail with
// an UnclassifiedError, never a silent default.
func (t *Table) Classify(code int) (Rule, error) {
	rule, ok := t.rules[code]
	if !ok {
		return Rule{}, &UnclassifiedError{Code: code}
	}
	return rule, nil
}

// ActionForStatus returns the disposition for an effective HTTP status code
// using the index precomputed at load time.
func (t *Table) ActionForStatus(status int) (Action, bool) {
	action, ok := t.byStatus[status]
	return action, ok
}

// Pick runs the tiered scan over an embedded error list: the first error
// whose action is break wins, else the first retry, else the first skip.
// A batch response may carry several errors at once and the most severe
// disposition must decide the outcome.
//
// Every code in the list must be mapped; the first unmapped code aborts the
// scan with an UnclassifiedError.
func (t *Table) Pick(errs []APIError) (APIError, Rule, error) {
	if len(errs) == 0 {
		return APIError{}, Rule{}, fmt.Errorf("empty error list")
	}

	for _, e := range errs {
		if _, ok := t.rules[e.Code]; !ok {
			return APIError{}, Rule{}, &UnclassifiedError{Code: e.Code}
		}
	}

	for _, action := range []Action{ActionBreak, ActionRetry, ActionSkip} {
		for _, e := range errs {
			rule := t.rules[e.Code]
			if rule.Action == action {
				return e, rule, nil
			}
		}
	}

	// Unreachable: New rejects rules with unknown actions.
	return APIError{}, Rule{}, fmt.Errorf("no rule matched any action")
}

// Len returns the number of rules in the table.
func (t *Table) Len() int {
	return len(t.rules)
}
