package response

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abbis/abbis-api/internal/domain/catalog"
	"github.com/abbis/abbis-api/internal/domain/history"
	"github.com/abbis/abbis-api/internal/domain/request"
	"github.com/abbis/abbis-api/internal/pkg/mail"
)

type fakeRepo struct {
	responses map[uuid.UUID]*Response
	items     map[uuid.UUID]*Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		responses: make(map[uuid.UUID]*Response),
		items:     make(map[uuid.UUID]*Item),
	}
}

func (f *fakeRepo) CreateWithItems(ctx context.Context, resp *Response, items []*Item) error {
	f.responses[resp.ID] = resp
	for _, item := range items {
		f.items[item.ID] = item
	}
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Response, error) {
	resp, ok := f.responses[id]
	if !ok {
		return nil, nil
	}
	clone := *resp
	return &clone, nil
}

func (f *fakeRepo) ListByRequest(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]*Response, error) {
	var out []*Response
	for _, resp := range f.responses {
		if resp.RequestID == requestID {
			clone := *resp
			out = append(out, &clone)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountByRequest(ctx context.Context, requestID uuid.UUID) (int, error) {
	count := 0
	for _, resp := range f.responses {
		if resp.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) UpdateDetails(ctx context.Context, resp *Response) error {
	stored, ok := f.responses[resp.ID]
	if !ok {
		return errors.New("missing response")
	}
	clone := *resp
	clone.Status = stored.Status
	f.responses[resp.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedBy uuid.UUID) error {
	resp, ok := f.responses[id]
	if !ok {
		return errors.New("missing response")
	}
	resp.Status = status
	resp.UpdatedBy = updatedBy
	return nil
}

func (f *fakeRepo) SetSubmitted(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	resp, ok := f.responses[id]
	if !ok {
		return errors.New("missing response")
	}
	resp.Status = StatusPendingApproval
	resp.ApprovalRequestedBy = uuid.NullUUID{UUID: by, Valid: true}
	resp.ApprovalRequestedAt.Time = at
	resp.ApprovalRequestedAt.Valid = true
	return nil
}

func (f *fakeRepo) SetApproved(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	resp, ok := f.responses[id]
	if !ok {
		return errors.New("missing response")
	}
	resp.Status = StatusApproved
	resp.ApprovalRequired = false
	resp.ApprovedBy = uuid.NullUUID{UUID: by, Valid: true}
	resp.ApprovedAt.Time = at
	resp.ApprovedAt.Valid = true
	return nil
}

func (f *fakeRepo) SetSent(ctx context.Context, id uuid.UUID, by uuid.UUID, recipients string, at time.Time) error {
	resp, ok := f.responses[id]
	if !ok {
		return errors.New("missing response")
	}
	resp.Status = StatusSent
	resp.SentBy = uuid.NullUUID{UUID: by, Valid: true}
	resp.SentTo.String = recipients
	resp.SentTo.Valid = true
	resp.SentAt.Time = at
	resp.SentAt.Valid = true
	return nil
}

func (f *fakeRepo) UpdateTotals(ctx context.Context, id uuid.UUID, t Totals) error {
	resp, ok := f.responses[id]
	if !ok {
		return errors.New("missing response")
	}
	resp.Subtotal = t.Subtotal
	resp.DiscountTotal = t.DiscountTotal
	resp.TaxTotal = t.TaxTotal
	resp.Total = t.Total
	return nil
}

func (f *fakeRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (f *fakeRepo) GetItems(ctx context.Context, responseID uuid.UUID) ([]*Item, error) {
	var out []*Item
	for _, item := range f.items {
		if item.ResponseID == responseID {
			clone := *item
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertItem(ctx context.Context, item *Item) error {
	clone := *item
	f.items[item.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateItem(ctx context.Context, item *Item) error {
	if _, ok := f.items[item.ID]; !ok {
		return errors.New("missing item")
	}
	clone := *item
	f.items[item.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateItemTotal(ctx context.Context, itemID uuid.UUID, lineTotal float64) error {
	if item, ok := f.items[itemID]; ok {
		item.LineTotal = lineTotal
	}
	return nil
}

func (f *fakeRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	if _, ok := f.items[itemID]; !ok {
		return false, nil
	}
	delete(f.items, itemID)
	return true, nil
}

type fakeRequestRepo struct {
	requests map[uuid.UUID]*request.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*request.Request)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *request.Request) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status request.Status) error {
	req, ok := f.requests[id]
	if !ok {
		return errors.New("missing request")
	}
	req.Status = status
	return nil
}

type fakeMatcher struct {
	byKeyword map[string]*catalog.Item
}

func (f *fakeMatcher) FindBestMatch(ctx context.Context, keywords []string) (*catalog.Item, error) {
	for _, kw := range keywords {
		if item, ok := f.byKeyword[kw]; ok {
			return item, nil
		}
	}
	return nil, nil
}

func (f *fakeMatcher) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	for _, item := range f.byKeyword {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

type fakeHistoryRepo struct {
	entries []*history.Entry
}

func (f *fakeHistoryRepo) Record(ctx context.Context, entry *history.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*history.Entry, error) {
	var out []*history.Entry
	for _, e := range f.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent []*mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type serviceFixture struct {
	svc         *Service
	repo        *fakeRepo
	requestRepo *fakeRequestRepo
	matcher     *fakeMatcher
	hist        *fakeHistoryRepo
	mailer      *fakeMailer
}

func newServiceFixture() *serviceFixture {
	repo := newFakeRepo()
	requestRepo := newFakeRequestRepo()
	matcher := &fakeMatcher{byKeyword: make(map[string]*catalog.Item)}
	hist := &fakeHistoryRepo{}
	mailer := &fakeMailer{}

	requestSvc := request.NewService(requestRepo, hist)
	svc := NewService(repo, requestRepo, requestSvc, matcher, hist)
	svc.SetPricingDefaults("GHS", 15)
	svc.SetMailer(mailer)

	return &serviceFixture{
		svc:         svc,
		repo:        repo,
		requestRepo: requestRepo,
		matcher:     matcher,
		hist:        hist,
		mailer:      mailer,
	}
}

func (fx *serviceFixture) addRequest(t request.Type, status request.Status, drilling, pump bool) *request.Request {
	req := &request.Request{
		ID:              uuid.New(),
		Type:            t,
		Status:          status,
		ClientName:      "Kwame Mensah",
		ClientEmail:     "kwame@example.com",
		IncludeDrilling: drilling,
		IncludePump:     pump,
	}
	fx.requestRepo.requests[req.ID] = req
	return req
}

func TestGeneratePricesSelectionsFromCatalog(t *testing.T) {
	fx := newServiceFixture()
	fx.matcher.byKeyword["drilling"] = &catalog.Item{
		ID:        uuid.New(),
		Name:      "Borehole drilling (standard)",
		SellPrice: 5000,
		Taxable:   true,
	}
	req := fx.addRequest(request.TypeQuote, request.StatusNew, true, true)

	resp, items, err := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if resp.Status != StatusDraft {
		t.Errorf("status = %s, want draft", resp.Status)
	}
	if !strings.HasPrefix(resp.Code, "Q-") {
		t.Errorf("code = %s, want Q- prefix", resp.Code)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	drillingItem := items[0]
	if !drillingItem.CatalogItemID.Valid {
		t.Error("catalog-matched item should carry catalog_item_id")
	}
	if drillingItem.UnitPrice != 5000 {
		t.Errorf("unit price = %v, want 5000", drillingItem.UnitPrice)
	}
	if drillingItem.TaxRate != 15 {
		t.Errorf("tax rate = %v, want default 15", drillingItem.TaxRate)
	}

	pumpItem := items[1]
	if !pumpItem.IsCustom || pumpItem.CatalogItemID.Valid {
		t.Error("unmatched selection should become a custom placeholder")
	}
	if pumpItem.Name != "Pump installation" {
		t.Errorf("placeholder name = %s", pumpItem.Name)
	}
	if pumpItem.UnitPrice != 0 {
		t.Errorf("placeholder price = %v, want 0", pumpItem.UnitPrice)
	}

	// 5000 * 1.15 for the drilling line, nothing for the placeholder
	if resp.Subtotal != 5000 {
		t.Errorf("subtotal = %v, want 5000", resp.Subtotal)
	}
	if resp.TaxTotal != 750 {
		t.Errorf("tax total = %v, want 750", resp.TaxTotal)
	}
	if resp.Total != 5750 {
		t.Errorf("total = %v, want 5750", resp.Total)
	}

	entries, _ := fx.hist.ListByEntity(context.Background(), history.EntityResponse, resp.ID)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0].OldStatus.Valid {
		t.Error("first history entry should have null old status")
	}
	if entries[0].NewStatus != string(StatusDraft) {
		t.Errorf("history new status = %s, want draft", entries[0].NewStatus)
	}
}

func TestGenerateAlwaysProducesAtLeastOneItem(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeRig, request.StatusNew, false, false)

	resp, items, err := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(resp.Code, "R-") {
		t.Errorf("code = %s, want R- prefix", resp.Code)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 fallback item", len(items))
	}
	if !items[0].IsCustom {
		t.Error("fallback item should be custom")
	}
	if items[0].Quantity != 1 {
		t.Errorf("fallback quantity = %v, want 1", items[0].Quantity)
	}
	if resp.Total != 0 {
		t.Errorf("total = %v, want 0", resp.Total)
	}
}

func TestGenerateUnknownRequest(t *testing.T) {
	fx := newServiceFixture()

	_, _, err := fx.svc.Generate(context.Background(), uuid.New(), uuid.New(), nil)
	if !errors.Is(err, request.ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestAddItemRecomputesTotals(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)

	resp, _, err := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	updated, items, err := fx.svc.AddItem(context.Background(), resp.ID, &AddItemRequest{
		Name:           "Gravel packing",
		Quantity:       2,
		UnitPrice:      300,
		DiscountAmount: 100,
		TaxRate:        10,
	}, uuid.New())
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	// subtotal is raw qty*price, discount subtracted, tax on the net
	if updated.Subtotal != 600 {
		t.Errorf("subtotal = %v, want 600", updated.Subtotal)
	}
	if updated.DiscountTotal != 100 {
		t.Errorf("discount total = %v, want 100", updated.DiscountTotal)
	}
	if updated.TaxTotal != 50 {
		t.Errorf("tax total = %v, want 50", updated.TaxTotal)
	}
	if updated.Total != 550 {
		t.Errorf("total = %v, want 550", updated.Total)
	}
}

func TestAddItemClampsQuantityToFloor(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	_, items, err := fx.svc.AddItem(context.Background(), resp.ID, &AddItemRequest{
		Name:     "Sliver of pipe",
		Quantity: 0.00001,
	}, uuid.New())
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	var added *Item
	for _, item := range items {
		if item.Name == "Sliver of pipe" {
			added = item
		}
	}
	if added == nil {
		t.Fatal("added item not found")
	}
	if added.Quantity != MinQuantity {
		t.Errorf("quantity = %v, want floor %v", added.Quantity, MinQuantity)
	}
}

func TestUpdateItemRejectsForeignResponse(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, true, false)
	_, items, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	otherResponse := uuid.New()
	price := 100.0
	_, _, err := fx.svc.UpdateItem(context.Background(), otherResponse, items[0].ID, &UpdateItemRequest{
		UnitPrice: &price,
	}, uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestDeleteItemRecomputesTotals(t *testing.T) {
	fx := newServiceFixture()
	fx.matcher.byKeyword["drilling"] = &catalog.Item{
		ID:        uuid.New(),
		Name:      "Borehole drilling",
		SellPrice: 5000,
	}
	req := fx.addRequest(request.TypeQuote, request.StatusNew, true, true)
	resp, items, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	updated, remaining, err := fx.svc.DeleteItem(context.Background(), resp.ID, items[0].ID, uuid.New())
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("remaining items = %d, want 1", len(remaining))
	}
	if updated.Subtotal != 0 || updated.Total != 0 {
		t.Errorf("totals = %v/%v, want 0/0 after deleting priced line", updated.Subtotal, updated.Total)
	}
}

func TestRecalculateTotalsIsIdempotent(t *testing.T) {
	fx := newServiceFixture()
	fx.matcher.byKeyword["drilling"] = &catalog.Item{
		ID:        uuid.New(),
		Name:      "Borehole drilling",
		SellPrice: 1234.56,
		Taxable:   true,
	}
	req := fx.addRequest(request.TypeQuote, request.StatusNew, true, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	if err := fx.svc.RecalculateTotals(context.Background(), resp.ID); err != nil {
		t.Fatalf("RecalculateTotals: %v", err)
	}
	first, _ := fx.repo.GetByID(context.Background(), resp.ID)

	if err := fx.svc.RecalculateTotals(context.Background(), resp.ID); err != nil {
		t.Fatalf("RecalculateTotals: %v", err)
	}
	second, _ := fx.repo.GetByID(context.Background(), resp.ID)

	if first.Subtotal != second.Subtotal || first.TaxTotal != second.TaxTotal || first.Total != second.Total {
		t.Errorf("recompute changed totals: %+v vs %+v", first, second)
	}
}

func TestSubmitAndApproveLifecycle(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	userID := uuid.New()
	submitted, err := fx.svc.SubmitForApproval(context.Background(), resp.ID, userID)
	if err != nil {
		t.Fatalf("SubmitForApproval: %v", err)
	}
	if submitted.Status != StatusPendingApproval {
		t.Errorf("status = %s, want pending_approval", submitted.Status)
	}
	if !submitted.ApprovalRequestedBy.Valid || submitted.ApprovalRequestedBy.UUID != userID {
		t.Error("approval_requested_by not stamped")
	}

	// Submitting twice fails: no longer a draft
	if _, err := fx.svc.SubmitForApproval(context.Background(), resp.ID, userID); !errors.Is(err, ErrOnlyDraftSubmittable) {
		t.Fatalf("second submit err = %v, want ErrOnlyDraftSubmittable", err)
	}

	approver := uuid.New()
	approved, err := fx.svc.Approve(context.Background(), resp.ID, approver)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.ApprovalRequired {
		t.Error("approval_required should clear on approve")
	}

	if _, err := fx.svc.Approve(context.Background(), resp.ID, approver); !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("second approve err = %v, want ErrNotApprovable", err)
	}

	entries, _ := fx.hist.ListByEntity(context.Background(), history.EntityResponse, resp.ID)
	if len(entries) != 3 {
		t.Fatalf("history entries = %d, want 3 (create, submit, approve)", len(entries))
	}
}

func TestApproveDirectlyFromDraft(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	approved, err := fx.svc.Approve(context.Background(), resp.ID, uuid.New())
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
}

func TestMarkSentSkipsApprovalGate(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	// Straight from draft, no approval
	sent, err := fx.svc.MarkSent(context.Background(), resp.ID, uuid.New(), []string{"kwame@example.com"}, "handed over in person")
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if sent.Status != StatusSent {
		t.Errorf("status = %s, want sent", sent.Status)
	}
	if !sent.SentTo.Valid || sent.SentTo.String != "kwame@example.com" {
		t.Errorf("sent_to = %+v", sent.SentTo)
	}

	// Parent quote request moves to quoted
	parent, _ := fx.requestRepo.GetByID(context.Background(), req.ID)
	if parent.Status != request.StatusQuoted {
		t.Errorf("parent status = %s, want quoted", parent.Status)
	}
}

func TestMarkSentForwardsRigParentToDispatched(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeRig, request.StatusNegotiating, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	if _, err := fx.svc.MarkSent(context.Background(), resp.ID, uuid.New(), nil, ""); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	parent, _ := fx.requestRepo.GetByID(context.Background(), req.ID)
	if parent.Status != request.StatusDispatched {
		t.Errorf("parent status = %s, want dispatched", parent.Status)
	}
}

func TestMarkSentSurvivesMissingParent(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	delete(fx.requestRepo.requests, req.ID)

	sent, err := fx.svc.MarkSent(context.Background(), resp.ID, uuid.New(), nil, "")
	if err != nil {
		t.Fatalf("MarkSent with missing parent: %v", err)
	}
	if sent.Status != StatusSent {
		t.Errorf("status = %s, want sent", sent.Status)
	}
}

func TestMarkSentLeavesAlreadyForwardedParentAlone(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusQuoted, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	if _, err := fx.svc.MarkSent(context.Background(), resp.ID, uuid.New(), nil, ""); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	parent, _ := fx.requestRepo.GetByID(context.Background(), req.ID)
	if parent.Status != request.StatusQuoted {
		t.Errorf("parent status = %s, want unchanged quoted", parent.Status)
	}
}

func TestSendEmailDispatchesAndMarksSent(t *testing.T) {
	fx := newServiceFixture()
	fx.matcher.byKeyword["drilling"] = &catalog.Item{
		ID:        uuid.New(),
		Name:      "Borehole drilling",
		SellPrice: 5000,
	}
	req := fx.addRequest(request.TypeQuote, request.StatusNew, true, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	sent, err := fx.svc.SendEmail(context.Background(), resp.ID, "kwame@example.com", uuid.New(), &SendEmailOptions{
		Message: "Please find our quotation attached below.",
	})
	if err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if sent.Status != StatusSent {
		t.Errorf("status = %s, want sent", sent.Status)
	}

	if len(fx.mailer.sent) != 1 {
		t.Fatalf("mails sent = %d, want 1", len(fx.mailer.sent))
	}
	msg := fx.mailer.sent[0]
	if msg.To != "kwame@example.com" {
		t.Errorf("to = %s", msg.To)
	}
	if !strings.Contains(msg.Subject, resp.Code) {
		t.Errorf("subject %q should contain code %s", msg.Subject, resp.Code)
	}
	if !strings.Contains(msg.HTMLBody, "Borehole drilling") {
		t.Error("body should list line items")
	}
	if !strings.Contains(msg.HTMLBody, "Please find our quotation attached below.") {
		t.Error("body should include the custom message")
	}

	parent, _ := fx.requestRepo.GetByID(context.Background(), req.ID)
	if parent.Status != request.StatusQuoted {
		t.Errorf("parent status = %s, want quoted", parent.Status)
	}
}

func TestSendEmailRejectsBadRecipient(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	if _, err := fx.svc.SendEmail(context.Background(), resp.ID, "not-an-email", uuid.New(), nil); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("err = %v, want ErrInvalidRecipient", err)
	}
	if len(fx.mailer.sent) != 0 {
		t.Error("no mail should go out for an invalid recipient")
	}
}

func TestSendEmailTransportFailureDoesNotMarkSent(t *testing.T) {
	fx := newServiceFixture()
	fx.mailer.err = errors.New("sendgrid 503")
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	if _, err := fx.svc.SendEmail(context.Background(), resp.ID, "kwame@example.com", uuid.New(), nil); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err = %v, want ErrSendFailed", err)
	}

	stored, _ := fx.repo.GetByID(context.Background(), resp.ID)
	if stored.Status != StatusDraft {
		t.Errorf("status = %s, want draft after failed send", stored.Status)
	}
	parent, _ := fx.requestRepo.GetByID(context.Background(), req.ID)
	if parent.Status != request.StatusNew {
		t.Errorf("parent status = %s, want unchanged new", parent.Status)
	}
}

func TestDeclineAndCancelGuardTerminalStates(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	declined, err := fx.svc.Decline(context.Background(), resp.ID, uuid.New(), "client went with a competitor")
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if declined.Status != StatusDeclined {
		t.Errorf("status = %s, want declined", declined.Status)
	}

	if _, err := fx.svc.Cancel(context.Background(), resp.ID, uuid.New(), ""); !errors.Is(err, ErrResponseClosed) {
		t.Fatalf("cancel after decline err = %v, want ErrResponseClosed", err)
	}
}

func TestListByRequest(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)

	for i := 0; i < 3; i++ {
		if _, _, err := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	responses, total, err := fx.svc.ListByRequest(context.Background(), req.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(responses) != 2 {
		t.Errorf("page size = %d, want 2", len(responses))
	}

	if _, _, err := fx.svc.ListByRequest(context.Background(), uuid.New(), 1, 20); !errors.Is(err, request.ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestUpdateDetailsPatchesFields(t *testing.T) {
	fx := newServiceFixture()
	req := fx.addRequest(request.TypeQuote, request.StatusNew, false, false)
	resp, _, _ := fx.svc.Generate(context.Background(), req.ID, uuid.New(), nil)

	subject := "Quotation for borehole works at Tema site"
	terms := "50% advance, balance on completion."
	updated, err := fx.svc.UpdateDetails(context.Background(), resp.ID, &UpdateResponseRequest{
		Subject: &subject,
		Terms:   &terms,
	}, uuid.New())
	if err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	if !updated.Subject.Valid || updated.Subject.String != subject {
		t.Errorf("subject = %+v", updated.Subject)
	}
	if !updated.Terms.Valid || updated.Terms.String != terms {
		t.Errorf("terms = %+v", updated.Terms)
	}
}
