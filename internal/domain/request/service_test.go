package request

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/abbis/abbis-api/internal/domain/history"
)

type fakeRepo struct {
	requests map[uuid.UUID]*Request
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: make(map[uuid.UUID]*Request)}
}

func (f *fakeRepo) Create(ctx context.Context, req *Request) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	req, ok := f.requests[id]
	if !ok {
		return errors.New("missing request")
	}
	req.Status = status
	return nil
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

func TestCreateEntersAtNew(t *testing.T) {
	repo := newFakeRepo()
	hist := &fakeHistoryRepo{}
	svc := NewService(repo, hist)

	created, err := svc.Create(context.Background(), uuid.New(), &CreateRequest{
		Type:            string(TypeQuote),
		ClientName:      "Ama Owusu",
		ClientEmail:     "ama@example.com",
		IncludeDrilling: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Status != StatusNew {
		t.Errorf("status = %s, want new", created.Status)
	}
	if len(hist.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(hist.entries))
	}
	if hist.entries[0].OldStatus.Valid {
		t.Error("first history entry should have null old status")
	}
	if hist.entries[0].EntityType != string(TypeQuote) {
		t.Errorf("history entity type = %s, want quote", hist.entries[0].EntityType)
	}
}

func TestUpdateStatusValidTransition(t *testing.T) {
	repo := newFakeRepo()
	hist := &fakeHistoryRepo{}
	svc := NewService(repo, hist)

	req := &Request{ID: uuid.New(), Type: TypeQuote, Status: StatusNew}
	repo.requests[req.ID] = req

	updated, err := svc.UpdateStatus(context.Background(), req.ID, StatusContacted, uuid.New(), "called the client")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusContacted {
		t.Errorf("status = %s, want contacted", updated.Status)
	}

	if len(hist.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(hist.entries))
	}
	e := hist.entries[0]
	if e.OldStatus.String != string(StatusNew) || e.NewStatus != string(StatusContacted) {
		t.Errorf("history transition = %s -> %s", e.OldStatus.String, e.NewStatus)
	}
	if e.Note.String != "called the client" {
		t.Errorf("note = %s", e.Note.String)
	}
}

func TestUpdateStatusRejectionLeavesStateUntouched(t *testing.T) {
	repo := newFakeRepo()
	hist := &fakeHistoryRepo{}
	svc := NewService(repo, hist)

	req := &Request{ID: uuid.New(), Type: TypeQuote, Status: StatusNew}
	repo.requests[req.ID] = req

	_, err := svc.UpdateStatus(context.Background(), req.ID, StatusConverted, uuid.New(), "")
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("err = %v, want ErrInvalidStatusTransition", err)
	}

	var transErr *InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("err should be *InvalidTransitionError, got %T", err)
	}
	if transErr.From != StatusNew || transErr.To != StatusConverted {
		t.Errorf("error detail = %s -> %s", transErr.From, transErr.To)
	}

	// Neither the stored request nor the history moved
	if repo.requests[req.ID].Status != StatusNew {
		t.Errorf("stored status = %s, want unchanged new", repo.requests[req.ID].Status)
	}
	if len(hist.entries) != 0 {
		t.Errorf("history entries = %d, want 0", len(hist.entries))
	}
}

func TestUpdateStatusUnknownRequest(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeHistoryRepo{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), StatusContacted, uuid.New(), "")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestHistoryUnknownRequest(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeHistoryRepo{})

	_, err := svc.History(context.Background(), uuid.New())
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}
