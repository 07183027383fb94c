// Package match holds the core of the LLM matchmaker: the scenario schema, the
// rule-based scoring heuristic used to label synthetic data, the
// encode-train-predict contract and the serving façade.
//
// # Reading Guide
//
//   - schema.go: the nine categorical attributes and the single validation gate
//   - candidate.go: the five candidates and their capability profiles
//   - rules.go, scoring.go: additive scoring rules, tie-break noise and argmax
//   - contract.go: feature column order and the one-hot encoder
//   - facade.go: the Unloaded/Ready matcher handle and Predict
//
// Sub-packages build on these types:
//   - match/dataset/: synthesis spec, samplers and the dataset file
//   - match/learn/: classifiers, search, metrics and the persisted artifact
//
// # Determinism
//
// All randomness flows through PartitionedRNG. Scenario attributes come from
// the "scenario" stream and noise from the "noise" stream, so changing the
// noise level never changes which scenarios are drawn.
package match
