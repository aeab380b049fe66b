// Package apply executes compiled migration plans against a storage engine.
//
// The storage engine is reached through the Executor interface, which runs
// one statement at a time. Sequential feeds a plan's statements to an
// Executor strictly in emission order and stops at the first failure,
// attributing it to the failing step with a StepError. Nothing is rolled
// back: statements that already ran stay applied, including the first
// statements of a three-statement field rename.
//
// Applier adds the surrounding policy: one apply per schema at a time,
// migration history, schema snapshots, structured logs and Prometheus
// metrics. Safety gating (migration.Gate) is the caller's decision and is
// not enforced here.
package apply
