package ir

import "fmt"

// VTableMethod describes a method entry in a class vtable. Cls is the class
// the method was defined in, which might be a parent class.
type VTableMethod struct {
	Cls    *ClassIR
	Method *FuncIR
}

// VTableAttr describes a getter/setter entry in a class vtable.
type VTableAttr struct {
	Cls      *ClassIR
	Name     string
	IsGetter bool
}

// VTableEntryItem is either a VTableMethod or a VTableAttr.
type VTableEntryItem interface{ vtableEntry() }

func (VTableMethod) vtableEntry() {}
func (VTableAttr) vtableEntry() {}

// Attribute is a named slot in a class's runtime layout.
type Attribute struct {
	Name string
	Type RType
}

// ClassIR is the intermediate representation of a class. It also describes
// the runtime structure of native instances.
type ClassIR struct {
	Name       string
	ModuleName string
	IsTrait    bool

	// Attributes in declaration order.
	Attributes []Attribute

	// MethodTypes holds the signatures of every method before method
	// bodies are generated; later stages rely on this being complete.
	MethodTypes map[string]*FuncSignature
	Methods     map[string]*FuncIR

	// VTable maps method/attribute names to vtable indices once computed.
	VTable        map[string]int
	VTableEntries []VTableEntryItem

	Base   *ClassIR
	Traits []*ClassIR

	// MRO is the method resolution order; generated classes get a working
	// single-entry mro, real classes fix it up.
	MRO []*ClassIR
	// BaseMRO is the chain of concrete (non-trait) ancestors.
	BaseMRO []*ClassIR
}

func NewClassIR(name, moduleName string) *ClassIR {
	c := &ClassIR{
		Name:        name,
		ModuleName:  moduleName,
		MethodTypes: make(map[string]*FuncSignature),
		Methods:     make(map[string]*FuncIR),
	}
	c.MRO = []*ClassIR{c}
	c.BaseMRO = []*ClassIR{c}
	return c
}

func (c *ClassIR) AddAttribute(name string, typ RType) {
	c.Attributes = append(c.Attributes, Attribute{Name: name, Type: typ})
}

func (c *ClassIR) VTableEntry(name string) int {
	if c.VTable == nil {
		panic("vtable not computed yet")
	}
	idx, ok := c.VTable[name]
	if !ok {
		panic(fmt.Sprintf("%q has no vtable entry %q", c.Name, name))
	}
	return idx
}

func (c *ClassIR) AttrType(name string) RType {
	for _, cls := range c.MRO {
		for _, attr := range cls.Attributes {
			if attr.Name == name {
				return attr.Type
			}
		}
	}
	panic(fmt.Sprintf("%q has no attribute %q", c.Name, name))
}

func (c *ClassIR) MethodSig(name string) *FuncSignature {
	for _, cls := range c.MRO {
		if sig, ok := cls.MethodTypes[name]; ok {
			return sig
		}
	}
	panic(fmt.Sprintf("%q has no method %q", c.Name, name))
}

func (c *ClassIR) GetMethod(name string) *FuncIR {
	for _, cls := range c.MRO {
		if m, ok := cls.Methods[name]; ok {
			return m
		}
	}
	return nil
}

func (c *ClassIR) StructName() string {
	return fmt.Sprintf("%s_%sObject", c.ModuleName, c.Name)
}
