package domain

import (
	"context"
	"errors"
	"testing"
)

type staticRule struct {
	name   string
	result Result
	err    error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return r.result, r.err
}

func TestRulesEngineAggregatesResults(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "warnings", result: Result{Violations: []Violation{
		{Rule: "warnings", Severity: SeverityWarn, Message: "heads up"},
	}}})
	engine.Register(staticRule{name: "blockers", result: Result{Violations: []Violation{
		{Rule: "blockers", Severity: SeverityBlock, Message: "stop"},
	}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "broken", err: boom})
	engine.Register(staticRule{name: "unreached", result: Result{Violations: []Violation{
		{Rule: "unreached", Severity: SeverityBlock},
	}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("result must be empty on error, got %+v", res)
	}
}

func TestResultMergeAndBlocking(t *testing.T) {
	var res Result
	res.Merge(Result{})
	if res.Violations != nil {
		t.Fatalf("merging empty result must not allocate")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityLog}}})
	if res.HasBlocking() {
		t.Fatalf("log severity is not blocking")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if !res.HasBlocking() || len(res.Violations) != 2 {
		t.Fatalf("unexpected merged result %+v", res)
	}
}
