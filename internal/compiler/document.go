package compiler

// Document is a type-tree document as written on disk. The same shape is
// accepted from CUE, YAML and JSON.
type Document struct {
	IRVersion   string          `json:"ir_version,omitempty" yaml:"ir_version,omitempty"`
	Definitions []DefinitionDoc `json:"definitions" yaml:"definitions"`
}

// DefinitionDoc is one declaration. Which fields apply depends on Kind.
type DefinitionDoc struct {
	Kind        string   `json:"kind" yaml:"kind"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Annotations []string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	Definitions   []DefinitionDoc `json:"definitions,omitempty" yaml:"definitions,omitempty"`     // module
	Members       []MemberDoc     `json:"members,omitempty" yaml:"members,omitempty"`             // struct
	Discriminator string          `json:"discriminator,omitempty" yaml:"discriminator,omitempty"` // union
	Cases         []CaseDoc       `json:"cases,omitempty" yaml:"cases,omitempty"`                 // union
	Enumerators   []any           `json:"enumerators,omitempty" yaml:"enumerators,omitempty"`     // enum: name or {name, value}
	Bits          []string        `json:"bits,omitempty" yaml:"bits,omitempty"`                   // bitmask
	Type          string          `json:"type,omitempty" yaml:"type,omitempty"`                   // typedef
}

// MemberDoc is a struct member or union case member.
type MemberDoc struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string   `json:"type" yaml:"type"`
	Annotations []string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// CaseDoc is one union case. Labels are integers, booleans, or enumerator
// names of the discriminator's enum.
type CaseDoc struct {
	Labels  []any     `json:"labels,omitempty" yaml:"labels,omitempty"`
	Default bool      `json:"default,omitempty" yaml:"default,omitempty"`
	Member  MemberDoc `json:"member" yaml:"member"`
}
