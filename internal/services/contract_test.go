package services

import (
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func TestComposeContract_SubstitutesAnchors(t *testing.T) {
	template := DefaultContractTemplate("Acme Co")
	signedAt := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	out := ComposeContract(template, "Jordan Lee", "jordan@acme.co", "data:image/png;base64,AAAA", signedAt)

	if strings.Contains(out, "[Client Name]") {
		t.Fatalf("client name placeholder left in output:\n%s", out)
	}
	if !strings.Contains(out, "jordan@acme.co") {
		t.Fatalf("signer email missing from output")
	}
	if !strings.Contains(out, `<span id="client-name">Jordan Lee</span>`) {
		t.Fatalf("signed name not embedded in name anchor")
	}
	if !strings.Contains(out, `<span id="client-date">March 14, 2026</span>`) {
		t.Fatalf("signing date not embedded in date anchor")
	}
	if !strings.Contains(out, `alt="signature"`) || !strings.Contains(out, "max-width:200px") {
		t.Fatalf("signature image not embedded with size cap:\n%s", out)
	}
}

func TestComposeContract_IsIdempotent(t *testing.T) {
	template := DefaultContractTemplate("Acme Co")
	signedAt := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	once := ComposeContract(template, "Jordan Lee", "jordan@acme.co", "data:image/png;base64,AAAA", signedAt)
	twice := ComposeContract(once, "Jordan Lee", "jordan@acme.co", "data:image/png;base64,AAAA", signedAt)

	if once != twice {
		t.Fatalf("re-composition changed the document:\n--- once ---\n%s\n--- twice ---\n%s", once, twice)
	}
}

func TestComposeContract_FallsBackToSignedNameWithoutEmail(t *testing.T) {
	template := DefaultContractTemplate("Acme Co")
	out := ComposeContract(template, "Jordan Lee", "", "", time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC))

	if !strings.Contains(out, "between the agency and Jordan Lee,") {
		t.Fatalf("signed name not used as client name fallback:\n%s", out)
	}
	// No signature payload means the signature anchor stays blank.
	if !strings.Contains(out, `<span id="client-signature"></span>`) {
		t.Fatalf("empty signature anchor was altered:\n%s", out)
	}
}

func TestHashContract_IsStableAndContentSensitive(t *testing.T) {
	a := HashContract("same template")
	b := HashContract("same template")
	c := HashContract("different template")

	if a != b {
		t.Fatalf("hash is not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("distinct templates produced the same hash")
	}
	if len(a) != 64 {
		t.Fatalf("expected a hex sha256 digest, got %q", a)
	}
}

func TestContractTemplate_PrefersConfiguredTemplate(t *testing.T) {
	node := &types.OnboardingNode{
		Config: datatypes.JSON([]byte(`{"contract_template":"<p>Custom terms for [Client Name]</p>"}`)),
	}
	got := ContractTemplate(node, "Acme Co")
	if got != "<p>Custom terms for [Client Name]</p>" {
		t.Fatalf("configured template not used: %q", got)
	}
}

func TestContractTemplate_FallsBackToDefault(t *testing.T) {
	cases := []*types.OnboardingNode{
		nil,
		{Config: datatypes.JSON([]byte(`{}`))},
		{Config: datatypes.JSON([]byte(`{"contract_template":"   "}`))},
		{Config: datatypes.JSON([]byte(`not json`))},
	}
	for i, node := range cases {
		got := ContractTemplate(node, "Acme Co")
		if !strings.Contains(got, "Service Agreement") || !strings.Contains(got, "Acme Co") {
			t.Fatalf("case %d: default template not used: %q", i, got)
		}
	}

	if !strings.Contains(DefaultContractTemplate(""), "the client") {
		t.Fatalf("blank org name should fall back to a generic party name")
	}
}
