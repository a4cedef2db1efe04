package lead

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appfirebase "github.com/janisto/lead-intake/internal/platform/firebase"
)

const (
	leadsCollection    = "leads"
	countersCollection = "counters"
	leadCounterDoc     = "leads"
)

type firestoreLead struct {
	ID              int64     `firestore:"id"`
	Name            string    `firestore:"name"`
	Phone           string    `firestore:"phone"`
	NormalizedPhone *string   `firestore:"normalized_phone"`
	PreferredStart  string    `firestore:"preferred_start"`
	PreferredEnd    *string   `firestore:"preferred_end"`
	Reason          string    `firestore:"reason"`
	UTCOffset       *string   `firestore:"utc_offset"`
	CallID          *string   `firestore:"call_id"`
	CreatedAt       time.Time `firestore:"created_at"`
	FXUSDEUR        *float64  `firestore:"fx_usd_eur"`
	FunFactShort    *string   `firestore:"fun_fact_short"`
}

type firestoreCounter struct {
	Value int64 `firestore:"value"`
}

func toFirestoreLead(l *Lead) firestoreLead {
	return firestoreLead{
		ID:              l.ID,
		Name:            l.Name,
		Phone:           l.Phone,
		NormalizedPhone: l.NormalizedPhone,
		PreferredStart:  l.PreferredStart,
		PreferredEnd:    l.PreferredEnd,
		Reason:          l.Reason,
		UTCOffset:       l.UTCOffset,
		CallID:          l.CallID,
		CreatedAt:       l.CreatedAt.UTC(),
		FXUSDEUR:        l.FXUSDEUR,
		FunFactShort:    l.FunFactShort,
	}
}

func (f firestoreLead) toLead() Lead {
	return Lead{
		ID:              f.ID,
		Name:            f.Name,
		Phone:           f.Phone,
		NormalizedPhone: f.NormalizedPhone,
		PreferredStart:  f.PreferredStart,
		PreferredEnd:    f.PreferredEnd,
		Reason:          f.Reason,
		UTCOffset:       f.UTCOffset,
		CallID:          f.CallID,
		CreatedAt:       f.CreatedAt.UTC(),
		FXUSDEUR:        f.FXUSDEUR,
		FunFactShort:    f.FunFactShort,
	}
}

// FirestoreStore keeps leads in Firestore. Ids come from a counter
// document incremented in the same transaction that creates the lead.
type FirestoreStore struct {
	client  *firestore.Client
	closeFn func() error
}

// NewFirestoreStore wraps a client owned by the caller.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// OpenFirestoreStore creates a Firestore client for project. The store
// owns the client and closes it on Close.
func OpenFirestoreStore(ctx context.Context, project, credentialsFile string) (*FirestoreStore, error) {
	clients, err := appfirebase.InitializeClients(ctx, appfirebase.Config{
		ProjectID:       project,
		CredentialsFile: credentialsFile,
	}, appfirebase.Firestore)
	if err != nil {
		return nil, err
	}
	return &FirestoreStore{client: clients.Firestore, closeFn: clients.Close}, nil
}

// Open returns a session over the shared client; Firestore clients are
// safe for concurrent use.
func (s *FirestoreStore) Open(context.Context) (Session, error) {
	return &firestoreSession{client: s.client}, nil
}

func (s *FirestoreStore) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

type firestoreSession struct {
	client *firestore.Client
}

func leadDocID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *firestoreSession) Insert(ctx context.Context, l *Lead) (int64, error) {
	counterRef := s.client.Collection(countersCollection).Doc(leadCounterDoc)
	var id int64

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var counter firestoreCounter
		doc, err := tx.Get(counterRef)
		switch {
		case err == nil:
			if err := doc.DataTo(&counter); err != nil {
				return err
			}
		case status.Code(err) != codes.NotFound:
			return err
		}

		id = counter.Value + 1
		if err := tx.Set(counterRef, firestoreCounter{Value: id}); err != nil {
			return err
		}
		fl := toFirestoreLead(l)
		fl.ID = id
		return tx.Create(s.client.Collection(leadsCollection).Doc(leadDocID(id)), fl)
	})
	if err != nil {
		return 0, fmt.Errorf("firestore: insert lead: %w", err)
	}
	return id, nil
}

func (s *firestoreSession) Update(ctx context.Context, l *Lead) error {
	docRef := s.client.Collection(leadsCollection).Doc(leadDocID(l.ID))

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		var existing firestoreLead
		if err := doc.DataTo(&existing); err != nil {
			return err
		}

		fl := toFirestoreLead(l)
		fl.CreatedAt = existing.CreatedAt
		return tx.Set(docRef, fl)
	})
	if err != nil {
		return fmt.Errorf("firestore: update lead %d: %w", l.ID, err)
	}
	return nil
}

func (s *firestoreSession) ListAll(ctx context.Context) ([]Lead, error) {
	docs, err := s.client.Collection(leadsCollection).OrderBy("id", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore: list leads: %w", err)
	}
	out := make([]Lead, 0, len(docs))
	for _, doc := range docs {
		var fl firestoreLead
		if err := doc.DataTo(&fl); err != nil {
			return nil, fmt.Errorf("firestore: decode lead %s: %w", doc.Ref.ID, err)
		}
		out = append(out, fl.toLead())
	}
	return out, nil
}

func (s *firestoreSession) Close() error { return nil }

var _ Store = (*FirestoreStore)(nil)
