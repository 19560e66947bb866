// Package convert migrates graph nodes between adjacent opset versions.
//
// Each [Adapter] performs one narrow rewrite of a single node for a single
// version step. Adapters are looked up in a [Registry] by operator name and
// (initial, target) opset pair; a [Converter] walks a graph and chains
// adapters to move every node across several versions.
package convert
