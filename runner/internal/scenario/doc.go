// Package scenario defines the contract between the runner and the units it
// executes, and loads scenario definitions from a directory of YAML files.
//
// A Scenario returns a *types.Result holding a pooled alignment (required)
// and a magnitude (optional). Definitions are parsed when a scenario runs, not
// when it is discovered, so a malformed file fails only its own scenario.
//
// Implemented kinds: weighted (weighted.go) pools a list of pairs directly;
// product (product.go) combines two operand lists element-wise and pools the
// products. Factory: New(id, Definition, defaults) returns the right Scenario.
//
// Discover(dir) returns one handle per *.yaml / *.yml file, ordered by file
// name. A missing directory is ErrScenariosNotFound.
package scenario
