package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/repos/testutil"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

// In-memory repo fakes. The service paths under test never open a
// transaction, so a nil *gorm.DB is safe.

type fakeNodeRepo struct {
	nodes   []*types.OnboardingNode
	deleted map[uuid.UUID]bool
}

func newFakeNodeRepo(nodes ...*types.OnboardingNode) *fakeNodeRepo {
	return &fakeNodeRepo{nodes: nodes, deleted: map[uuid.UUID]bool{}}
}

func (f *fakeNodeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.OnboardingNode) ([]*types.OnboardingNode, error) {
	f.nodes = append(f.nodes, rows...)
	return rows, nil
}

func (f *fakeNodeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OnboardingNode, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*types.OnboardingNode
	for _, n := range f.nodes {
		if want[n.ID] && !f.deleted[n.ID] {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNodeRepo) GetByOrgIDOrdered(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OnboardingNode, error) {
	var out []*types.OnboardingNode
	for _, n := range f.nodes {
		if n.OrgID == orgID && !f.deleted[n.ID] {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeNodeRepo) MaxPosition(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int, error) {
	max := -1
	for _, n := range f.nodes {
		if n.OrgID == orgID && !f.deleted[n.ID] && n.Position > max {
			max = n.Position
		}
	}
	return max, nil
}

func (f *fakeNodeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (f *fakeNodeRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		f.deleted[id] = true
	}
	return nil
}

type fakeProgressRepo struct {
	rows        []*types.OnboardingProgress
	upsertCalls int
}

func (f *fakeProgressRepo) GetByNodeAndUser(ctx context.Context, tx *gorm.DB, nodeID, userID uuid.UUID) (*types.OnboardingProgress, error) {
	for _, p := range f.rows {
		if p.NodeID == nodeID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProgressRepo) GetByUserAndNodeIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, nodeIDs []uuid.UUID) ([]*types.OnboardingProgress, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range nodeIDs {
		want[id] = true
	}
	var out []*types.OnboardingProgress
	for _, p := range f.rows {
		if p.UserID == userID && want[p.NodeID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.OnboardingProgress) error {
	f.upsertCalls++
	for _, p := range f.rows {
		if p.NodeID == row.NodeID && p.UserID == row.UserID {
			p.Metadata = row.Metadata
			if row.Status == types.ProgressStatusCompleted {
				p.Status = row.Status
				p.CompletedAt = row.CompletedAt
			}
			return nil
		}
	}
	cp := *row
	f.rows = append(f.rows, &cp)
	return nil
}

type fakeSignatureRepo struct {
	sigs []*types.ContractSignature
}

func (f *fakeSignatureRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ContractSignature) ([]*types.ContractSignature, error) {
	f.sigs = append(f.sigs, rows...)
	return rows, nil
}

func (f *fakeSignatureRepo) GetByNodeAndUser(ctx context.Context, tx *gorm.DB, nodeID, userID uuid.UUID) (*types.ContractSignature, error) {
	for _, s := range f.sigs {
		if s.NodeID == nodeID && s.UserID == userID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSignatureRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.ContractSignature, error) {
	return f.sigs, nil
}

type fakeMembershipRepo struct {
	memberships []*types.OrgMembership
}

func (f *fakeMembershipRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.OrgMembership) ([]*types.OrgMembership, error) {
	f.memberships = append(f.memberships, rows...)
	return rows, nil
}

func (f *fakeMembershipRepo) GetByOrgAndUser(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (*types.OrgMembership, error) {
	for _, m := range f.memberships {
		if m.OrgID == orgID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.OrgMembership, error) {
	var out []*types.OrgMembership
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OrgMembership, error) {
	var out []*types.OrgMembership
	for _, m := range f.memberships {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) GetAdminsByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OrgMembership, error) {
	var out []*types.OrgMembership
	for _, m := range f.memberships {
		if m.OrgID == orgID && m.Role == "admin" {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.OrgMembership) error {
	f.memberships = append(f.memberships, row)
	return nil
}

type fakeOrgRepo struct {
	orgs []*types.Org
}

func (f *fakeOrgRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Org) ([]*types.Org, error) {
	f.orgs = append(f.orgs, rows...)
	return rows, nil
}

func (f *fakeOrgRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Org, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*types.Org
	for _, o := range f.orgs {
		if want[o.ID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Org, error) {
	return nil, nil
}

func (f *fakeOrgRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeUserRepo struct {
	users []*types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
	f.users = append(f.users, rows...)
	return rows, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*types.User
	for _, u := range f.users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return false, nil
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeNotifier struct {
	onboardingCompleted int
	lastEmails          []string
}

func (f *fakeNotifier) OnboardingCompleted(ctx context.Context, org *types.Org, emails []string) error {
	f.onboardingCompleted++
	f.lastEmails = emails
	return nil
}

func (f *fakeNotifier) ReportPublished(ctx context.Context, org *types.Org, report *types.Report, emails []string) error {
	return nil
}

func (f *fakeNotifier) MemberInvited(ctx context.Context, org *types.Org, email string) error {
	return nil
}

type onboardingFixture struct {
	svc         OnboardingService
	nodes       *fakeNodeRepo
	progress    *fakeProgressRepo
	signatures  *fakeSignatureRepo
	memberships *fakeMembershipRepo
	orgs        *fakeOrgRepo
	users       *fakeUserRepo
	notifier    *fakeNotifier
}

func newOnboardingFixture(t *testing.T, nodes ...*types.OnboardingNode) *onboardingFixture {
	t.Helper()
	fx := &onboardingFixture{
		nodes:       newFakeNodeRepo(nodes...),
		progress:    &fakeProgressRepo{},
		signatures:  &fakeSignatureRepo{},
		memberships: &fakeMembershipRepo{},
		orgs:        &fakeOrgRepo{},
		users:       &fakeUserRepo{},
		notifier:    &fakeNotifier{},
	}
	fx.svc = NewOnboardingService(nil, testutil.Logger(t),
		fx.nodes, fx.progress, fx.signatures, fx.memberships, fx.orgs, fx.users, fx.notifier)
	return fx
}

func testNode(orgID uuid.UUID, nodeType string, position int, config string) *types.OnboardingNode {
	n := &types.OnboardingNode{
		ID:       uuid.New(),
		OrgID:    orgID,
		NodeType: nodeType,
		Title:    nodeType,
		Position: position,
	}
	if config != "" {
		n.Config = datatypes.JSON(config)
	}
	return n
}

func TestRecordCompletion_TermsRequiresBothAcceptances(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	terms := testNode(orgID, types.NodeTypeTerms, 0,
		`{"terms_version":"v3","privacy_version":"v2"}`)

	cases := []struct {
		name     string
		metadata map[string]interface{}
	}{
		{"terms only", map[string]interface{}{"terms_accepted": true}},
		{"privacy only", map[string]interface{}{"privacy_accepted": true}},
		{"terms true privacy false", map[string]interface{}{"terms_accepted": true, "privacy_accepted": false}},
		{"neither", map[string]interface{}{}},
		{"nil metadata", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newOnboardingFixture(t, terms)
			_, err := fx.svc.RecordCompletion(context.Background(), orgID, userID, terms.ID, tc.metadata)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if fx.progress.upsertCalls != 0 {
				t.Fatalf("expected no progress writes on rejection, got %d", fx.progress.upsertCalls)
			}
			if len(fx.progress.rows) != 0 {
				t.Fatalf("expected no persisted progress, got %d rows", len(fx.progress.rows))
			}
		})
	}
}

func TestRecordCompletion_TermsStampsAcceptedVersions(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	terms := testNode(orgID, types.NodeTypeTerms, 0,
		`{"terms_version":"v3","privacy_version":"v2"}`)
	fx := newOnboardingFixture(t, terms)

	progress, err := fx.svc.RecordCompletion(context.Background(), orgID, userID, terms.ID,
		map[string]interface{}{"terms_accepted": true, "privacy_accepted": true})
	if err != nil {
		t.Fatalf("RecordCompletion failed: %v", err)
	}
	if progress.Status != types.ProgressStatusCompleted {
		t.Fatalf("expected completed status, got %q", progress.Status)
	}
	if progress.CompletedAt == nil {
		t.Fatal("expected a completion timestamp")
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(progress.Metadata, &meta); err != nil {
		t.Fatalf("metadata did not round-trip: %v", err)
	}
	if meta["terms_version"] != "v3" || meta["privacy_version"] != "v2" {
		t.Fatalf("expected accepted versions stamped into metadata, got %v", meta)
	}
	if meta["accepted_at"] == "" {
		t.Fatal("expected accepted_at in metadata")
	}
}

func TestNextStep_AdvancesMonotonically(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	first := testNode(orgID, types.NodeTypeWelcome, 0, "")
	second := testNode(orgID, types.NodeTypeScope, 1, "")
	third := testNode(orgID, types.NodeTypeTerms, 2,
		`{"terms_version":"v1","privacy_version":"v1"}`)
	fx := newOnboardingFixture(t, first, second, third)
	fx.orgs.orgs = append(fx.orgs.orgs, &types.Org{
		ID: orgID, Name: "Acme Co", Slug: "acme",
	})
	ctx := context.Background()

	next, err := fx.svc.NextStep(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("NextStep failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected first node as next, got %v", next)
	}

	if _, err := fx.svc.RecordCompletion(ctx, orgID, userID, first.ID, nil); err != nil {
		t.Fatalf("completing first node failed: %v", err)
	}
	next, err = fx.svc.NextStep(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("NextStep failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected second node as next, got %v", next)
	}

	// Completing a later node out of order never moves the pointer back
	// or past the earliest unfinished step.
	if _, err := fx.svc.RecordCompletion(ctx, orgID, userID, third.ID,
		map[string]interface{}{"terms_accepted": true, "privacy_accepted": true}); err != nil {
		t.Fatalf("completing third node failed: %v", err)
	}
	next, err = fx.svc.NextStep(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("NextStep failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected second node to remain next, got %v", next)
	}

	if _, err := fx.svc.RecordCompletion(ctx, orgID, userID, second.ID, nil); err != nil {
		t.Fatalf("completing second node failed: %v", err)
	}
	next, err = fx.svc.NextStep(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("NextStep failed: %v", err)
	}
	if next != nil {
		t.Fatalf("expected no next step after finishing all nodes, got %v", next)
	}
	if fx.notifier.onboardingCompleted == 0 {
		t.Fatal("expected the finished onboarding to notify the agency")
	}
}

func TestDeleteNode_RemovesFromTraversal(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	first := testNode(orgID, types.NodeTypeWelcome, 0, "")
	second := testNode(orgID, types.NodeTypeScope, 1, "")
	fx := newOnboardingFixture(t, first, second)
	ctx := context.Background()

	if err := fx.svc.DeleteNode(ctx, orgID, first.ID); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}

	next, err := fx.svc.NextStep(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("NextStep failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected deleted node skipped, got %v", next)
	}

	steps, err := fx.svc.ListSteps(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("ListSteps failed: %v", err)
	}
	if len(steps) != 1 || steps[0].Node.ID != second.ID {
		t.Fatalf("expected one remaining step, got %d", len(steps))
	}
}

func TestDeleteNode_OtherOrgNotFound(t *testing.T) {
	orgID := uuid.New()
	node := testNode(orgID, types.NodeTypeWelcome, 0, "")
	fx := newOnboardingFixture(t, node)

	err := fx.svc.DeleteNode(context.Background(), uuid.New(), node.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found for a foreign org, got %v", err)
	}
	if len(fx.nodes.deleted) != 0 {
		t.Fatal("expected no rows deleted")
	}
}

func TestInvoiceHTML_UnpaidRendersDocument(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	node := testNode(orgID, types.NodeTypeInvoice, 0,
		`{"invoice_number":"INV-2042","amount_label":"$1,500.00 retainer"}`)
	fx := newOnboardingFixture(t, node)
	fx.orgs.orgs = append(fx.orgs.orgs, &types.Org{
		ID: orgID, Name: "Acme Co", Slug: "acme", BillingEmail: "billing@acme.test",
	})
	fx.users.users = append(fx.users.users, &types.User{ID: userID, Email: "jordan@client.test"})
	fx.memberships.memberships = append(fx.memberships.memberships, &types.OrgMembership{
		OrgID: orgID, UserID: uuid.New(), Role: "admin",
		User: &types.User{Email: "owner@agency.test"},
	})

	html, paid, err := fx.svc.InvoiceHTML(context.Background(), orgID, node.ID, userID)
	if err != nil {
		t.Fatalf("InvoiceHTML failed: %v", err)
	}
	if paid {
		t.Fatal("expected an unpaid invoice")
	}
	for _, want := range []string{
		"Invoice INV-2042",
		"Billed to: Acme Co",
		"Billing contact: billing@acme.test",
		"Attention: jordan@client.test",
		"Agency contacts: owner@agency.test",
		"Amount due: $1,500.00 retainer",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("invoice html missing %q:\n%s", want, html)
		}
	}
}

func TestInvoiceHTML_PaidSkipsDocument(t *testing.T) {
	orgID := uuid.New()
	node := testNode(orgID, types.NodeTypeInvoice, 0, `{"payment_status":" Paid "}`)
	fx := newOnboardingFixture(t, node)

	html, paid, err := fx.svc.InvoiceHTML(context.Background(), orgID, node.ID, uuid.New())
	if err != nil {
		t.Fatalf("InvoiceHTML failed: %v", err)
	}
	if !paid || html != "" {
		t.Fatalf("expected paid with no document, got paid=%v html=%q", paid, html)
	}
}

func TestInvoiceHTML_RejectsNonInvoiceNode(t *testing.T) {
	orgID := uuid.New()
	node := testNode(orgID, types.NodeTypeWelcome, 0, "")
	fx := newOnboardingFixture(t, node)

	_, _, err := fx.svc.InvoiceHTML(context.Background(), orgID, node.ID, uuid.New())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for a non-invoice node, got %v", err)
	}

	_, _, err = fx.svc.InvoiceHTML(context.Background(), uuid.New(), node.ID, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found for a foreign org, got %v", err)
	}
}
