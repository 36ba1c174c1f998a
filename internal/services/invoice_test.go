package services

import (
	"strings"
	"testing"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func TestBuildInvoiceHTML_IsDeterministic(t *testing.T) {
	org := &types.Org{Name: "Acme Co", BillingEmail: "billing@acme.co"}
	admins := []string{"ana@agency.io", "ben@agency.io"}

	a := BuildInvoiceHTML(org, admins, "jordan@acme.co", "INV-0042", "$2,500 / mo")
	b := BuildInvoiceHTML(org, admins, "jordan@acme.co", "INV-0042", "$2,500 / mo")
	if a != b {
		t.Fatalf("same inputs produced different documents")
	}

	for _, want := range []string{
		"Invoice INV-0042",
		"Billed to: Acme Co",
		"Billing contact: billing@acme.co",
		"Attention: jordan@acme.co",
		"Agency contacts: ana@agency.io, ben@agency.io",
		"Amount due: $2,500 / mo",
	} {
		if !strings.Contains(a, want) {
			t.Fatalf("missing %q in:\n%s", want, a)
		}
	}
}

func TestBuildInvoiceHTML_AppliesDefaults(t *testing.T) {
	out := BuildInvoiceHTML(nil, nil, "", "", "")

	if !strings.Contains(out, "Invoice INV-0001") {
		t.Fatalf("default invoice number missing:\n%s", out)
	}
	if !strings.Contains(out, "Billed to: Client") {
		t.Fatalf("default client name missing:\n%s", out)
	}
	if !strings.Contains(out, "Amount due: as agreed") {
		t.Fatalf("default amount label missing:\n%s", out)
	}
	if strings.Contains(out, "Billing contact:") || strings.Contains(out, "Attention:") || strings.Contains(out, "Agency contacts:") {
		t.Fatalf("optional lines rendered without data:\n%s", out)
	}
}
