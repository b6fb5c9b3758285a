// Package scaffold is a test harness for pipes.
//
// A Scenario wraps a pipe and an ordered list of cases. Each case installs
// its own inputs through conditions and states what it expects of the
// outputs. All cases are merged into a single run of the pipe; a Collector
// then slices every target back to the rows of one case by matching a key
// field against the surrogate ids that case was given.
//
//	sc := scaffold.NewScenario("enrich", p, scaffold.WithKey("main", "id"))
//	sc.Case("known key").
//		When(scaffold.ExampleFor("main", rows), scaffold.HasKeys("main")).
//		Then(scaffold.TargetHasRecords("main", 2))
//	sc.Test(t)
package scaffold
