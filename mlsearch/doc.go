// Package mlsearch implements multi-criteria label-setting search over a
// time-dependent transit graph.
//
// A search keeps, per node, a Pareto frontier of labels that no other label
// at that node dominates. Labels are pulled one at a time from an Iterator in
// comparator order; the caller decides when it has seen enough. Each search
// owns its label arena, so concurrent searches share nothing but the
// read-only graph and overlay behind their ptgraph.Explorer.
package mlsearch
