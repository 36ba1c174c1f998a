package services

import (
	"fmt"
	"strings"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

// BuildInvoiceHTML expands the invoice template for an unpaid invoice
// step. The output is deterministic for a given input set; paid and
// confirmed invoices never reach this path (the step state reports a
// confirmation view instead).
func BuildInvoiceHTML(org *types.Org, adminEmails []string, signerEmail, invoiceNumber, amountLabel string) string {
	orgName := "Client"
	billing := ""
	if org != nil {
		if strings.TrimSpace(org.Name) != "" {
			orgName = org.Name
		}
		billing = org.BillingEmail
	}
	if strings.TrimSpace(invoiceNumber) == "" {
		invoiceNumber = "INV-0001"
	}
	if strings.TrimSpace(amountLabel) == "" {
		amountLabel = "as agreed"
	}

	var b strings.Builder
	b.WriteString(`<div class="invoice">` + "\n")
	fmt.Fprintf(&b, "<h1>Invoice %s</h1>\n", invoiceNumber)
	fmt.Fprintf(&b, "<p>Billed to: %s</p>\n", orgName)
	if billing != "" {
		fmt.Fprintf(&b, "<p>Billing contact: %s</p>\n", billing)
	}
	if signerEmail != "" {
		fmt.Fprintf(&b, "<p>Attention: %s</p>\n", signerEmail)
	}
	if len(adminEmails) > 0 {
		fmt.Fprintf(&b, "<p>Agency contacts: %s</p>\n", strings.Join(adminEmails, ", "))
	}
	fmt.Fprintf(&b, "<p>Amount due: %s</p>\n", amountLabel)
	b.WriteString(`<p>Please complete payment to continue onboarding.</p>` + "\n")
	b.WriteString("</div>")
	return b.String()
}
