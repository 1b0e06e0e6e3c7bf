// Package model holds the closed set of node and edge kinds shared by every
// component that produces or consumes the symbol graph.
package model

// NodeKind is one of the nineteen closed symbol kinds.
type NodeKind string

const (
	KindFunction   NodeKind = "function"
	KindMethod     NodeKind = "method"
	KindClass      NodeKind = "class"
	KindInterface  NodeKind = "interface"
	KindType       NodeKind = "type"
	KindEnum       NodeKind = "enum"
	KindVariable   NodeKind = "variable"
	KindConstant   NodeKind = "constant"
	KindModule     NodeKind = "module"
	KindNamespace  NodeKind = "namespace"
	KindStruct     NodeKind = "struct"
	KindTrait      NodeKind = "trait"
	KindComponent  NodeKind = "component"
	KindHook       NodeKind = "hook"
	KindDecorator  NodeKind = "decorator"
	KindProperty   NodeKind = "property"
	KindRoute      NodeKind = "route"
	KindMiddleware NodeKind = "middleware"
	KindTest       NodeKind = "test"
)

// ValidNodeKinds is the closed set, used to reject anything else at the
// storage boundary.
var ValidNodeKinds = map[NodeKind]bool{
	KindFunction: true, KindMethod: true, KindClass: true, KindInterface: true,
	KindType: true, KindEnum: true, KindVariable: true, KindConstant: true,
	KindModule: true, KindNamespace: true, KindStruct: true, KindTrait: true,
	KindComponent: true, KindHook: true, KindDecorator: true, KindProperty: true,
	KindRoute: true, KindMiddleware: true, KindTest: true,
}

// EdgeKind is one of the fourteen closed relationship kinds.
type EdgeKind string

const (
	EdgeCalls       EdgeKind = "calls"
	EdgeImports     EdgeKind = "imports"
	EdgeExtends     EdgeKind = "extends"
	EdgeImplements  EdgeKind = "implements"
	EdgeReturnsType EdgeKind = "returns_type"
	EdgeUsesType    EdgeKind = "uses_type"
	EdgeHasMethod   EdgeKind = "has_method"
	EdgeHasProperty EdgeKind = "has_property"
	EdgeContains    EdgeKind = "contains"
	EdgeExports     EdgeKind = "exports"
	EdgeRenders     EdgeKind = "renders"
	EdgeDecorates   EdgeKind = "decorates"
	EdgeOverrides   EdgeKind = "overrides"
	EdgeTests       EdgeKind = "tests"
)

var ValidEdgeKinds = map[EdgeKind]bool{
	EdgeCalls: true, EdgeImports: true, EdgeExtends: true, EdgeImplements: true,
	EdgeReturnsType: true, EdgeUsesType: true, EdgeHasMethod: true, EdgeHasProperty: true,
	EdgeContains: true, EdgeExports: true, EdgeRenders: true, EdgeDecorates: true,
	EdgeOverrides: true, EdgeTests: true,
}

// ImpactEdgeKinds are the edge kinds walked by impact-radius analysis.
var ImpactEdgeKinds = []EdgeKind{EdgeCalls, EdgeImports, EdgeExtends, EdgeImplements, EdgeUsesType}

// CycleEdgeKinds are the edge kinds walked by cycle detection.
var CycleEdgeKinds = []EdgeKind{EdgeImports, EdgeCalls, EdgeExtends, EdgeImplements}

// DeadCodeEdgeKinds are the incoming edge kinds that keep a symbol "alive".
var DeadCodeEdgeKinds = []EdgeKind{EdgeCalls, EdgeImports, EdgeExtends, EdgeImplements, EdgeUsesType}

// HotspotKinds are the node kinds considered for the hotspot report.
var HotspotKinds = []NodeKind{KindFunction, KindMethod, KindClass, KindInterface, KindComponent, KindHook}
