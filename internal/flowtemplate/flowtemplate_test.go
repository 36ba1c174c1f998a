package flowtemplate

import (
	"strings"
	"testing"
)

func TestParse_ValidTemplate(t *testing.T) {
	data := []byte(`
name: custom-flow
nodes:
  - type: welcome
    title: Hello
    description: Intro deck.
  - type: invoice
    title: First invoice
    config:
      invoice_number: INV-0100
      amount_label: "$500"
`)
	tpl, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "custom-flow" || len(tpl.Nodes) != 2 {
		t.Fatalf("unexpected template: %+v", tpl)
	}
	if tpl.Nodes[1].Config["invoice_number"] != "INV-0100" {
		t.Fatalf("config not decoded: %+v", tpl.Nodes[1].Config)
	}
}

func TestParse_RejectsInvalidTemplates(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"not yaml", "nodes: [", "failed to parse"},
		{"no nodes", "name: empty\n", "no nodes"},
		{"unknown type", "nodes:\n  - type: survey\n    title: Q\n", `unknown type "survey"`},
		{"missing title", "nodes:\n  - type: welcome\n", "has no title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefault_IsAValidTemplate(t *testing.T) {
	def := Default()
	if len(def.Nodes) != 5 {
		t.Fatalf("expected the standard five steps, got %d", len(def.Nodes))
	}
	for i, n := range def.Nodes {
		if !validNodeTypes[n.Type] {
			t.Fatalf("node %d has invalid type %q", i, n.Type)
		}
		if n.Title == "" {
			t.Fatalf("node %d has no title", i)
		}
	}
	wantOrder := []string{"welcome", "scope", "contract", "invoice", "terms"}
	for i, typ := range wantOrder {
		if def.Nodes[i].Type != typ {
			t.Fatalf("expected step %d to be %q, got %q", i, typ, def.Nodes[i].Type)
		}
	}
}
