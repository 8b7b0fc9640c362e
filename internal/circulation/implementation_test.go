package circulation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libradesk/internal/catalog"
	"libradesk/internal/eventlog"
	"libradesk/internal/fine"
	"libradesk/internal/membership"
)

// fakeStore is an in-memory Store. WithTx serializes callers with a mutex,
// mirroring the row lock the real store takes on the item.
type fakeStore struct {
	mu          sync.Mutex
	items       map[string]*catalog.Item
	memberships map[string]*membership.Membership
	issues      []*Issue
	fines       []*fine.Fine
	sequences   map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:       map[string]*catalog.Item{},
		memberships: map[string]*membership.Membership{},
		sequences:   map[string]int64{},
	}
}

func (s *fakeStore) itemKey(serialNo, itemType string) string {
	return serialNo + "/" + itemType
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Work on a snapshot so a failing fn leaves no partial state behind.
	snapshot := &fakeStore{
		items:       map[string]*catalog.Item{},
		memberships: map[string]*membership.Membership{},
		issues:      make([]*Issue, len(s.issues)),
		fines:       make([]*fine.Fine, len(s.fines)),
		sequences:   map[string]int64{},
	}
	for k, v := range s.items {
		item := *v
		snapshot.items[k] = &item
	}
	for k, v := range s.memberships {
		m := *v
		snapshot.memberships[k] = &m
	}
	for i, v := range s.issues {
		issue := *v
		snapshot.issues[i] = &issue
	}
	for i, v := range s.fines {
		f := *v
		snapshot.fines[i] = &f
	}
	for k, v := range s.sequences {
		snapshot.sequences[k] = v
	}

	if err := fn(&fakeTx{store: snapshot}); err != nil {
		return err
	}

	s.items = snapshot.items
	s.memberships = snapshot.memberships
	s.issues = snapshot.issues
	s.fines = snapshot.fines
	s.sequences = snapshot.sequences
	return nil
}

func (s *fakeStore) ListActive(ctx context.Context) ([]Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []Issue
	for _, issue := range s.issues {
		if issue.Status == StatusIssued {
			active = append(active, *issue)
		}
	}
	return active, nil
}

func (s *fakeStore) ListOverdue(ctx context.Context, asOf time.Time) ([]Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var overdue []Issue
	for _, issue := range s.issues {
		if issue.Status == StatusIssued && issue.ReturnDate.Before(asOf) {
			overdue = append(overdue, *issue)
		}
	}
	return overdue, nil
}

func (s *fakeStore) ListByMember(ctx context.Context, membershipID string) ([]Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Issue
	for _, issue := range s.issues {
		if issue.MembershipID == membershipID {
			out = append(out, *issue)
		}
	}
	return out, nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) ItemForUpdate(serialNo, itemType string) (*catalog.Item, error) {
	item, ok := t.store.items[t.store.itemKey(serialNo, itemType)]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	return item, nil
}

func (t *fakeTx) SaveItemAvailability(item *catalog.Item) error {
	t.store.items[t.store.itemKey(item.SerialNo, item.Type)] = item
	return nil
}

func (t *fakeTx) MembershipByID(membershipID string) (*membership.Membership, error) {
	m, ok := t.store.memberships[membershipID]
	if !ok {
		return nil, membership.ErrMembershipNotFound
	}
	return m, nil
}

func (t *fakeTx) AddPendingAmount(membershipID string, delta float64) error {
	if m, ok := t.store.memberships[membershipID]; ok {
		m.AmountPending += delta
	}
	return nil
}

func (t *fakeTx) NextSequence(scope string) (int64, error) {
	t.store.sequences[scope]++
	return t.store.sequences[scope], nil
}

func (t *fakeTx) InsertIssue(issue *Issue) error {
	copied := *issue
	t.store.issues = append(t.store.issues, &copied)
	return nil
}

func (t *fakeTx) MostRecentOpenIssue(serialNo, membershipID string) (*Issue, error) {
	var latest *Issue
	for _, issue := range t.store.issues {
		if issue.SerialNo != serialNo || issue.MembershipID != membershipID ||
			issue.Status != StatusIssued {
			continue
		}
		if latest == nil || issue.IssueDate.After(latest.IssueDate) {
			latest = issue
		}
	}
	if latest == nil {
		return nil, ErrNoActiveIssue
	}
	return latest, nil
}

func (t *fakeTx) UpdateIssue(issue *Issue) error {
	for i, existing := range t.store.issues {
		if existing.IssueID == issue.IssueID {
			copied := *issue
			t.store.issues[i] = &copied
			return nil
		}
	}
	return ErrNoActiveIssue
}

func (t *fakeTx) InsertFine(f *fine.Fine) error {
	copied := *f
	t.store.fines = append(t.store.fines, &copied)
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *fakeRecorder) Append(ctx context.Context, eventType, entityID string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testItem(serialNo string, copies int) *catalog.Item {
	return &catalog.Item{
		SerialNo:        serialNo,
		Name:            "A Brief History of Time",
		CreatorName:     "Stephen Hawking",
		Category:        "Science",
		Status:          catalog.StatusAvailable,
		Type:            catalog.TypeBook,
		Quantity:        copies,
		AvailableCopies: copies,
	}
}

func testMembership(id string) *membership.Membership {
	return &membership.Membership{
		MembershipID:   id,
		FirstName:      "Asha",
		LastName:       "Rao",
		Status:         membership.StatusActive,
		MembershipType: membership.TermSixMonths,
	}
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	due := time.Now().Add(14 * 24 * time.Hour)

	t.Run("member loan decrements copies", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 3)
		store.memberships["MEM000001"] = testMembership("MEM000001")
		svc := NewService(store, &fakeRecorder{}, testLogger())

		issue, err := svc.Issue(ctx, IssueRequest{
			SerialNo:     "SC(B/M)000001",
			ItemType:     catalog.TypeBook,
			MembershipID: "MEM000001",
			ReturnDate:   due,
		})
		require.NoError(t, err)

		assert.Regexp(t, `^ISS-\d{4}-0001$`, issue.IssueID)
		assert.Equal(t, "MEM000001", issue.MembershipID)
		assert.Equal(t, "Asha Rao", issue.MemberName)
		assert.Equal(t, StatusIssued, issue.Status)
		assert.Equal(t, 2, store.items["SC(B/M)000001/Book"].AvailableCopies)
		assert.Equal(t, catalog.StatusAvailable, store.items["SC(B/M)000001/Book"].Status)
	})

	t.Run("last copy flips item status", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		svc := NewService(store, &fakeRecorder{}, testLogger())

		_, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook, ReturnDate: due,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, store.items["SC(B/M)000001/Book"].AvailableCopies)
		assert.Equal(t, catalog.StatusIssued, store.items["SC(B/M)000001/Book"].Status)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := NewService(newFakeStore(), &fakeRecorder{}, testLogger())

		_, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)999999", ItemType: catalog.TypeBook, ReturnDate: due,
		})
		assert.ErrorIs(t, err, catalog.ErrItemNotFound)
	})

	t.Run("no copies left", func(t *testing.T) {
		store := newFakeStore()
		item := testItem("SC(B/M)000001", 1)
		item.AvailableCopies = 0
		item.Status = catalog.StatusIssued
		store.items["SC(B/M)000001/Book"] = item
		svc := NewService(store, &fakeRecorder{}, testLogger())

		_, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook, ReturnDate: due,
		})
		assert.ErrorIs(t, err, catalog.ErrItemUnavailable)
	})

	t.Run("unknown membership", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		svc := NewService(store, &fakeRecorder{}, testLogger())

		_, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook,
			MembershipID: "MEM999999", ReturnDate: due,
		})
		assert.ErrorIs(t, err, ErrInvalidMembership)
		// The precondition failed after the availability check; nothing
		// may have been committed.
		assert.Equal(t, 1, store.items["SC(B/M)000001/Book"].AvailableCopies)
	})

	t.Run("cancelled membership", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		m := testMembership("MEM000001")
		m.Status = membership.StatusCancelled
		store.memberships["MEM000001"] = m
		svc := NewService(store, &fakeRecorder{}, testLogger())

		_, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook,
			MembershipID: "MEM000001", ReturnDate: due,
		})
		assert.ErrorIs(t, err, ErrInvalidMembership)
	})

	t.Run("outstanding fines block the loan", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		m := testMembership("MEM000001")
		m.AmountPending = 25
		store.memberships["MEM000001"] = m
		svc := NewService(store, &fakeRecorder{}, testLogger())

		_, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook,
			MembershipID: "MEM000001", ReturnDate: due,
		})
		assert.ErrorIs(t, err, ErrFinesOutstanding)
		assert.Equal(t, 1, store.items["SC(B/M)000001/Book"].AvailableCopies)
	})

	t.Run("guest loan", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		recorder := &fakeRecorder{}
		svc := NewService(store, recorder, testLogger())

		issue, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook, ReturnDate: due,
		})
		require.NoError(t, err)
		assert.Equal(t, GuestMembershipID, issue.MembershipID)
		assert.Equal(t, GuestName, issue.MemberName)
		assert.Contains(t, recorder.recorded(), eventlog.ItemIssued)
	})

	t.Run("issue ids increment globally", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 5)
		svc := NewService(store, &fakeRecorder{}, testLogger())

		first, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook, ReturnDate: due,
		})
		require.NoError(t, err)
		second, err := svc.Issue(ctx, IssueRequest{
			SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook, ReturnDate: due,
		})
		require.NoError(t, err)

		assert.Regexp(t, `-0001$`, first.IssueID)
		assert.Regexp(t, `-0002$`, second.IssueID)
	})
}

func TestIssueConcurrency(t *testing.T) {
	// Two concurrent loans race for the last copy; exactly one may win.
	store := newFakeStore()
	store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
	svc := NewService(store, &fakeRecorder{}, testLogger())

	due := time.Now().Add(14 * 24 * time.Hour)
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Issue(context.Background(), IssueRequest{
				SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook, ReturnDate: due,
			})
			results <- err
		}()
	}

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			assert.ErrorIs(t, err, catalog.ErrItemUnavailable)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 0, store.items["SC(B/M)000001/Book"].AvailableCopies)
}

func TestReturn(t *testing.T) {
	ctx := context.Background()

	issueAt := func(t *testing.T, svc Service, due time.Time, membershipID string) *Issue {
		t.Helper()
		issue, err := svc.Issue(ctx, IssueRequest{
			SerialNo:     "SC(B/M)000001",
			ItemType:     catalog.TypeBook,
			MembershipID: membershipID,
			ReturnDate:   due,
		})
		require.NoError(t, err)
		return issue
	}

	t.Run("on-time return restores the item with no fine", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		store.memberships["MEM000001"] = testMembership("MEM000001")
		recorder := &fakeRecorder{}
		svc := NewService(store, recorder, testLogger())

		due := time.Now().Add(14 * 24 * time.Hour)
		issueAt(t, svc, due, "MEM000001")

		result, err := svc.Return(ctx, ReturnRequest{
			SerialNo:         "SC(B/M)000001",
			MembershipID:     "MEM000001",
			ActualReturnDate: time.Now(),
		})
		require.NoError(t, err)

		assert.Zero(t, result.FineAmount)
		assert.Nil(t, result.Fine)
		assert.Equal(t, StatusReturned, result.Issue.Status)
		assert.Equal(t, 1, store.items["SC(B/M)000001/Book"].AvailableCopies)
		assert.Equal(t, catalog.StatusAvailable, store.items["SC(B/M)000001/Book"].Status)
		assert.Zero(t, store.memberships["MEM000001"].AmountPending)
		assert.Contains(t, recorder.recorded(), eventlog.ItemReturned)
		assert.NotContains(t, recorder.recorded(), eventlog.FineCreated)
	})

	t.Run("late return creates a fine and pending balance", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		store.memberships["MEM000001"] = testMembership("MEM000001")
		recorder := &fakeRecorder{}
		svc := NewService(store, recorder, testLogger())

		// A minute shy of five full days so clock drift between the issue
		// and the return cannot push the fine into a sixth day.
		due := time.Now().Add(-5*24*time.Hour + time.Minute)
		issueAt(t, svc, due, "MEM000001")

		result, err := svc.Return(ctx, ReturnRequest{
			SerialNo:         "SC(B/M)000001",
			MembershipID:     "MEM000001",
			ActualReturnDate: time.Now(),
		})
		require.NoError(t, err)

		assert.Equal(t, 25.0, result.FineAmount)
		require.NotNil(t, result.Fine)
		assert.Equal(t, "FINE000001", result.Fine.FineID)
		assert.Equal(t, 5, result.Fine.DaysOverdue)
		assert.False(t, result.Fine.FinePaid)
		assert.Equal(t, 25.0, store.memberships["MEM000001"].AmountPending)
		assert.Contains(t, recorder.recorded(), eventlog.FineCreated)
	})

	t.Run("guest fine has no balance to charge", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		svc := NewService(store, &fakeRecorder{}, testLogger())

		due := time.Now().Add(-24*time.Hour + time.Minute)
		issueAt(t, svc, due, "")

		result, err := svc.Return(ctx, ReturnRequest{
			SerialNo:         "SC(B/M)000001",
			MembershipID:     GuestMembershipID,
			ActualReturnDate: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, 5.0, result.FineAmount)
		assert.Equal(t, GuestMembershipID, result.Fine.MembershipID)
	})

	t.Run("no open issue", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		svc := NewService(store, &fakeRecorder{}, testLogger())

		_, err := svc.Return(ctx, ReturnRequest{
			SerialNo:         "SC(B/M)000001",
			MembershipID:     GuestMembershipID,
			ActualReturnDate: time.Now(),
		})
		assert.ErrorIs(t, err, ErrNoActiveIssue)
	})

	t.Run("item removed from catalog while out", func(t *testing.T) {
		store := newFakeStore()
		store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 1)
		store.memberships["MEM000001"] = testMembership("MEM000001")
		svc := NewService(store, &fakeRecorder{}, testLogger())

		due := time.Now().Add(14 * 24 * time.Hour)
		issueAt(t, svc, due, "MEM000001")
		delete(store.items, "SC(B/M)000001/Book")

		result, err := svc.Return(ctx, ReturnRequest{
			SerialNo:         "SC(B/M)000001",
			MembershipID:     "MEM000001",
			ActualReturnDate: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusReturned, result.Issue.Status)
	})

	t.Run("restore passes quantity when more copies come back than went out", func(t *testing.T) {
		store := newFakeStore()
		item := testItem("SC(B/M)000001", 2)
		store.items["SC(B/M)000001/Book"] = item
		svc := NewService(store, &fakeRecorder{}, testLogger())

		due := time.Now().Add(14 * 24 * time.Hour)
		issueAt(t, svc, due, "")

		// A manual stock correction happens while the copy is out.
		store.items["SC(B/M)000001/Book"].AvailableCopies = 2

		_, err := svc.Return(ctx, ReturnRequest{
			SerialNo:         "SC(B/M)000001",
			MembershipID:     GuestMembershipID,
			ActualReturnDate: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, store.items["SC(B/M)000001/Book"].AvailableCopies)
	})
}

func TestOverdueIssues(t *testing.T) {
	store := newFakeStore()
	store.items["SC(B/M)000001/Book"] = testItem("SC(B/M)000001", 2)
	svc := NewService(store, &fakeRecorder{}, testLogger())
	ctx := context.Background()

	_, err := svc.Issue(ctx, IssueRequest{
		SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook,
		ReturnDate: time.Now().Add(-3*24*time.Hour + time.Minute),
	})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueRequest{
		SerialNo: "SC(B/M)000001", ItemType: catalog.TypeBook,
		ReturnDate: time.Now().Add(14 * 24 * time.Hour),
	})
	require.NoError(t, err)

	overdue, err := svc.OverdueIssues(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 3, overdue[0].DaysOverdue)
	assert.Equal(t, 15.0, overdue[0].FineAmount)
	assert.Equal(t, StatusIssued, overdue[0].Status)
}
