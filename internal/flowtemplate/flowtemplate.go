package flowtemplate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template describes an onboarding flow as declared in YAML. Each node
// becomes one onboarding step, in file order.
type Template struct {
	Name  string `yaml:"name"`
	Nodes []Node `yaml:"nodes"`
}

type Node struct {
	Type        string                 `yaml:"type"`
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Config      map[string]interface{} `yaml:"config"`
}

var validNodeTypes = map[string]bool{
	"welcome":  true,
	"scope":    true,
	"contract": true,
	"invoice":  true,
	"terms":    true,
}

// Load reads a flow template from a YAML file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow template: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates template YAML.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse flow template: %w", err)
	}
	if len(t.Nodes) == 0 {
		return nil, fmt.Errorf("flow template has no nodes")
	}
	for i, n := range t.Nodes {
		if !validNodeTypes[n.Type] {
			return nil, fmt.Errorf("node %d has unknown type %q", i, n.Type)
		}
		if n.Title == "" {
			return nil, fmt.Errorf("node %d (%s) has no title", i, n.Type)
		}
	}
	return &t, nil
}

// Default is the flow every new client org starts with when no custom
// template is configured.
func Default() *Template {
	return &Template{
		Name: "standard-onboarding",
		Nodes: []Node{
			{
				Type:        "welcome",
				Title:       "Welcome",
				Description: "Start here. A quick overview of how we work together.",
			},
			{
				Type:        "scope",
				Title:       "Scope of work",
				Description: "Review what is included in your engagement.",
			},
			{
				Type:        "contract",
				Title:       "Service agreement",
				Description: "Read and sign the service agreement.",
			},
			{
				Type:        "invoice",
				Title:       "First invoice",
				Description: "Review and pay your first invoice.",
				Config: map[string]interface{}{
					"invoice_number": "INV-0001",
				},
			},
			{
				Type:        "terms",
				Title:       "Terms and privacy",
				Description: "Accept the terms of service and privacy policy.",
				Config: map[string]interface{}{
					"terms_version":   "1.0",
					"privacy_version": "1.0",
				},
			},
		},
	}
}
