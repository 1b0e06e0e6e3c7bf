package extractor

import "github.com/heefoo/codexray/internal/model"

// langRules is the fixed set of syntax-node types each language's grammar
// uses for a given raw classification, plus the node types that carry
// call/import/extends clauses. It is the "fixed sets of syntax-node types"
// the specification requires per language family; keeping it as a data
// table (instead of one switch per language, as the teacher's original
// parser does) is the natural generalization once the kind set grew from
// about ten kinds to the full nineteen.
type langRules struct {
	function  map[string]bool
	method    map[string]bool
	class     map[string]bool
	structure map[string]bool
	iface     map[string]bool
	enumType  map[string]bool
	namespace map[string]bool
	trait     map[string]bool
	typeAlias map[string]bool
	variable  map[string]bool

	classBody map[string]bool // node types that count as "inside a class body"
	call      map[string]bool
	imports   map[string]bool
	extends   map[string]bool // node types that hold an extends/implements/superclass clause
	comment   map[string]bool // comment-like node types for docstring discovery
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

var commentDefaults = set("comment", "doc_comment", "block_comment", "line_comment")

var rulesByLanguage = map[string]*langRules{
	"go": {
		function:  set("function_declaration"),
		method:    set("method_declaration"),
		structure: set("struct_type"),
		iface:     set("interface_type"),
		typeAlias: set("type_declaration", "type_spec"),
		variable:  set("var_declaration", "const_declaration", "var_spec", "const_spec"),
		call:      set("call_expression"),
		imports:   set("import_declaration", "import_spec"),
		comment:   commentDefaults,
	},
	"python": {
		function:  set("function_definition"),
		class:     set("class_definition"),
		variable:  set("assignment"),
		classBody: set("block"),
		call:      set("call"),
		imports:   set("import_statement", "import_from_statement"),
		extends:   set("argument_list"),
		comment:   set("comment"),
	},
	"javascript": {
		function:  set("function_declaration", "function", "arrow_function", "generator_function_declaration"),
		method:    set("method_definition"),
		class:     set("class_declaration"),
		variable:  set("variable_declarator"),
		classBody: set("class_body"),
		call:      set("call_expression", "new_expression"),
		imports:   set("import_statement"),
		extends:   set("class_heritage"),
		comment:   set("comment"),
	},
	"typescript": {
		function:  set("function_declaration", "function", "arrow_function"),
		method:    set("method_definition", "method_signature"),
		class:     set("class_declaration"),
		iface:     set("interface_declaration"),
		typeAlias: set("type_alias_declaration"),
		enumType:  set("enum_declaration"),
		variable:  set("variable_declarator"),
		classBody: set("class_body"),
		call:      set("call_expression", "new_expression"),
		imports:   set("import_statement"),
		extends:   set("class_heritage"),
		comment:   set("comment"),
	},
	"tsx": {
		function:  set("function_declaration", "function", "arrow_function"),
		method:    set("method_definition", "method_signature"),
		class:     set("class_declaration"),
		iface:     set("interface_declaration"),
		typeAlias: set("type_alias_declaration"),
		enumType:  set("enum_declaration"),
		variable:  set("variable_declarator"),
		classBody: set("class_body"),
		call:      set("call_expression", "new_expression"),
		imports:   set("import_statement"),
		extends:   set("class_heritage"),
		comment:   set("comment"),
	},
	"rust": {
		function:  set("function_item"),
		structure: set("struct_item"),
		enumType:  set("enum_item"),
		trait:     set("trait_item"),
		typeAlias: set("type_item"),
		variable:  set("const_item", "static_item"),
		classBody: set("impl_item", "declaration_list"),
		call:      set("call_expression", "macro_invocation"),
		imports:   set("use_declaration"),
		extends:   set("trait_bounds"),
		comment:   set("line_comment", "block_comment"),
	},
	"java": {
		method:    set("method_declaration", "constructor_declaration"),
		class:     set("class_declaration"),
		iface:     set("interface_declaration"),
		enumType:  set("enum_declaration"),
		variable:  set("field_declaration", "local_variable_declaration"),
		classBody: set("class_body"),
		call:      set("method_invocation", "object_creation_expression"),
		imports:   set("import_declaration"),
		extends:   set("superclass", "super_interfaces"),
		comment:   set("line_comment", "block_comment"),
	},
	"c": {
		function:  set("function_definition"),
		structure: set("struct_specifier"),
		enumType:  set("enum_specifier"),
		typeAlias: set("type_definition"),
		variable:  set("declaration"),
		call:      set("call_expression"),
		imports:   set("preproc_include"),
		comment:   set("comment"),
	},
	"cpp": {
		function:  set("function_definition"),
		method:    set("function_definition"),
		class:     set("class_specifier"),
		structure: set("struct_specifier"),
		enumType:  set("enum_specifier"),
		namespace: set("namespace_definition"),
		typeAlias: set("type_definition", "alias_declaration"),
		variable:  set("declaration"),
		classBody: set("field_declaration_list"),
		call:      set("call_expression"),
		imports:   set("preproc_include"),
		extends:   set("base_class_clause"),
		comment:   set("comment"),
	},
	"ruby": {
		method:    set("method"),
		class:     set("class"),
		namespace: set("module"),
		variable:  set("assignment"),
		classBody: set("body_statement"),
		call:      set("call", "method_call"),
		imports:   set("call"), // require/require_relative show up as calls
		extends:   set("superclass"),
		comment:   set("comment"),
	},
	"clojure": {
		function:  set("list_lit"),
		namespace: set("list_lit"),
		comment:   set("comment"),
	},
	"commonlisp": {
		function:  set("defun_form", "defmacro_form"),
		class:     set("defclass_form"),
		structure: set("defstruct_form"),
		iface:     set("defgeneric_form"),
		method:    set("defmethod_form"),
		namespace: set("defpackage_form", "in_package_form"),
		comment:   set("comment"),
	},
	"julia": {
		function:  set("function_definition", "short_function_definition", "macro_definition"),
		structure: set("struct_definition"),
		iface:     set("abstract_definition"),
		namespace: set("module_definition"),
		imports:   set("import_statement", "using_statement"),
		comment:   set("line_comment", "block_comment"),
	},
}

// RulesFor returns the classification rules for a language name, or nil if
// no dedicated rules exist (the generic fallback extractor handles those).
func RulesFor(language string) *langRules {
	return rulesByLanguage[language]
}

func (r *langRules) rawKind(nodeType string) (model.NodeKind, bool) {
	switch {
	case r.function[nodeType]:
		return model.KindFunction, true
	case r.method[nodeType]:
		return model.KindMethod, true
	case r.class[nodeType]:
		return model.KindClass, true
	case r.structure[nodeType]:
		return model.KindStruct, true
	case r.iface[nodeType]:
		return model.KindInterface, true
	case r.enumType[nodeType]:
		return model.KindEnum, true
	case r.namespace[nodeType]:
		return model.KindNamespace, true
	case r.trait[nodeType]:
		return model.KindTrait, true
	case r.typeAlias[nodeType]:
		return model.KindType, true
	case r.variable[nodeType]:
		return model.KindVariable, true
	default:
		return "", false
	}
}
