// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package lang

// FunctionSignature carries return-type info for registry lookups, per
// spec §3: "Signatures carry return-type info (raw name, is_self, is_result,
// is_option, generic params)."
type FunctionSignature struct {
	ID             FunctionID
	Name           string
	ReturnTypeRaw  string
	IsSelf         bool
	IsResult       bool
	IsOption       bool
	GenericParams  []string
}

// BuilderInfo describes a detected builder type: a type with a build()/Build()
// method and one or more with*/with_* methods. Type::new / Type::default
// alone do not make a type a builder.
type BuilderInfo struct {
	TypeName   string
	BuildFunc  FunctionID
	WithFuncs  []FunctionID
}

// FunctionRegistry is the project-wide name/method/builder index of
// spec §3: "name → FunctionSignature; (type_name, method_name) →
// MethodSignature; builder_type → BuilderInfo." Built once by the
// orchestrator (pkg/batch), then passed by read-only reference to phase 2
// resolution and the classifiers — no back-references from nodes into the
// registry are stored (spec §9 "Shared type/function registry").
type FunctionRegistry struct {
	ByName   map[string][]FunctionSignature   // bare name -> candidates (possibly cross-file)
	ByMethod map[string]map[string]FunctionSignature // type -> method -> signature
	Builders map[string]BuilderInfo
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		ByName:   make(map[string][]FunctionSignature),
		ByMethod: make(map[string]map[string]FunctionSignature),
		Builders: make(map[string]BuilderInfo),
	}
}

// Impl describes one trait/interface implementation, per spec §3:
// "Impl = {type_name, methods: name→FunctionId, generic constraints}".
type Impl struct {
	TypeName    string
	Methods     map[string]FunctionID
	Constraints []string
}

// TraitTracker is the Trait-Implementation Tracker of spec §3:
// trait_name → []Impl; reverse type_name → []trait_name; blanket impls;
// (type_name, associated_type) → resolved.
type TraitTracker struct {
	Implementors map[string][]Impl   // trait name -> implementors
	TraitsOfType map[string][]string // type name -> trait names
	Blanket      []Impl              // trait implemented for every type satisfying Constraints
	Associated   map[[2]string]string
}

// NewTraitTracker constructs an empty tracker.
func NewTraitTracker() *TraitTracker {
	return &TraitTracker{
		Implementors: make(map[string][]Impl),
		TraitsOfType: make(map[string][]string),
		Associated:   make(map[[2]string]string),
	}
}

// Implements reports whether TraitsOfType lists traitName for typeName.
// Blanket impls are not consulted and no generic constraint is checked.
func (t *TraitTracker) Implements(typeName, traitName string) bool {
	for _, tr := range t.TraitsOfType[typeName] {
		if tr == traitName {
			return true
		}
	}
	return false
}
