package ast

import (
	"fmt"
	"strings"
	"testing"
)

// recorder logs every callback it receives.
type recorder struct {
	calls []string
}

func (r *recorder) EnterObject(o *Object)        { r.calls = append(r.calls, "enter "+o.Name) }
func (r *recorder) VisitAttributeKey(key string) { r.calls = append(r.calls, "key "+key) }
func (r *recorder) BetweenAttributes()           { r.calls = append(r.calls, "between") }
func (r *recorder) ExitObject(o *Object)         { r.calls = append(r.calls, "exit "+o.Name) }
func (r *recorder) VisitText(t *Text)            { r.calls = append(r.calls, "text "+t.Value) }
func (r *recorder) VisitNumber(n *Number)        { r.calls = append(r.calls, fmt.Sprintf("number %v", n.Value)) }
func (r *recorder) VisitNull(*Null)              { r.calls = append(r.calls, "null") }

func TestAcceptOrder(t *testing.T) {
	tree := &Object{
		Name: "A",
		Attributes: []Attribute{
			{Key: "b", Value: &Object{Name: "B", Attributes: []Attribute{{Key: "c", Value: &Number{Value: 1}}}}},
			{Key: "d", Value: &Text{Value: "x"}},
			{Key: "e", Value: &Null{}},
		},
	}

	var r recorder
	tree.Accept(&r)

	want := []string{
		"enter A",
		"key b", "enter B", "key c", "number 1", "exit B",
		"between",
		"key d", "text x",
		"between",
		"key e", "null",
		"exit A",
	}
	if got := strings.Join(r.calls, "|"); got != strings.Join(want, "|") {
		t.Errorf("unexpected traversal:\n got: %s\nwant: %s", got, strings.Join(want, "|"))
	}
}

func TestAcceptEmptyObject(t *testing.T) {
	var r recorder
	(&Object{Name: "Empty"}).Accept(&r)

	if len(r.calls) != 2 || r.calls[0] != "enter Empty" || r.calls[1] != "exit Empty" {
		t.Errorf("expected enter/exit only, got %v", r.calls)
	}
}

func TestAcceptDuplicateKeysKept(t *testing.T) {
	var r recorder
	(&Object{Name: "D", Attributes: []Attribute{
		{Key: "k", Value: &Number{Value: 1}},
		{Key: "k", Value: &Number{Value: 2}},
	}}).Accept(&r)

	keys := 0
	for _, c := range r.calls {
		if c == "key k" {
			keys++
		}
	}
	if keys != 2 {
		t.Errorf("expected both duplicate keys visited, got %d", keys)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder(3); got != "{{ Log Entity 3 }}" {
		t.Errorf("expected '{{ Log Entity 3 }}', got %q", got)
	}
}
