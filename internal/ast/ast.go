// Package ast holds the tree produced by parsing an embedded object literal
// and the visitor contract renderers use to walk it.
package ast

import "fmt"

// Entity is a parsed value: *Object, *Text, *Number or *Null.
// Entities are never mutated after the parser builds them.
type Entity interface {
	// Accept walks the entity depth-first, invoking v's callbacks in order.
	Accept(v Visitor)
	entity()
}

// Object is a named value with an ordered attribute list.
type Object struct {
	Name       string
	Attributes []Attribute
}

// Attribute is one key/value member of an Object. Keys may repeat; the
// parser keeps every occurrence in source order.
type Attribute struct {
	Key   string
	Value Entity
}

// Text is a raw textual value.
type Text struct {
	Value string
}

// Number is a numeric value with single precision.
type Number struct {
	Value float32
}

// Null marks an attribute written without a value, as in "key = ," or "key = )".
type Null struct{}

func (*Object) entity() {}
func (*Text) entity()   {}
func (*Number) entity() {}
func (*Null) entity()   {}

func (o *Object) Accept(v Visitor) {
	v.EnterObject(o)
	last := len(o.Attributes) - 1
	for i, attr := range o.Attributes {
		v.VisitAttributeKey(attr.Key)
		attr.Value.Accept(v)
		if i != last {
			v.BetweenAttributes()
		}
	}
	v.ExitObject(o)
}

func (t *Text) Accept(v Visitor)   { v.VisitText(t) }
func (n *Number) Accept(v Visitor) { v.VisitNumber(n) }
func (n *Null) Accept(v Visitor)   { v.VisitNull(n) }

// Visitor receives the callbacks of an Entity traversal.
//
// For an object the order is EnterObject, then for each attribute
// VisitAttributeKey followed by the value's own callbacks and
// BetweenAttributes unless it is the last one, then ExitObject.
type Visitor interface {
	EnterObject(o *Object)
	VisitAttributeKey(key string)
	BetweenAttributes()
	ExitObject(o *Object)
	VisitText(t *Text)
	VisitNumber(n *Number)
	VisitNull(n *Null)
}

// LogMessage is a log line split into a template and the entities recognized in it.
// Entities[i] belongs to the placeholder Placeholder(i+1) in Message.
type LogMessage struct {
	Message  string
	Entities []Entity
}

// Placeholder returns the marker substituted for the n-th recognized entity (1-based).
func Placeholder(n int) string {
	return fmt.Sprintf("{{ Log Entity %d }}", n)
}
