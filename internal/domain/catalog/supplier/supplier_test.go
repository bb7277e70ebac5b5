package supplier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain"
)

type fakeRepo struct {
	byName     map[string]*Supplier
	getNameErr error
	created    []*Supplier
}

func (f *fakeRepo) Create(_ context.Context, s *Supplier) error {
	f.created = append(f.created, s)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, supplierID id.ID) (*Supplier, error) {
	return nil, apperror.NewNotFound("supplier", supplierID)
}

func (f *fakeRepo) GetByName(_ context.Context, name string) (*Supplier, error) {
	if f.getNameErr != nil {
		return nil, f.getNameErr
	}
	s, ok := f.byName[name]
	if !ok {
		return nil, apperror.NewNotFound("supplier", name)
	}
	return s, nil
}

func (f *fakeRepo) Update(_ context.Context, _ *Supplier) error { return nil }

func (f *fakeRepo) SetDeletionMark(_ context.Context, _ id.ID, _ bool) error { return nil }

func (f *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Supplier], error) {
	panic("not used in tests")
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestGetOrCreateByName_ReturnsExisting(t *testing.T) {
	existing := New("Atacadão Central")
	repo := &fakeRepo{byName: map[string]*Supplier{"Atacadão Central": existing}}
	svc := NewService(repo, fakeTxManager{})

	got, err := svc.GetOrCreateByName(context.Background(), "  Atacadão Central ")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Empty(t, repo.created)
}

func TestGetOrCreateByName_AutoRegistersUnknown(t *testing.T) {
	repo := &fakeRepo{byName: map[string]*Supplier{}}
	svc := NewService(repo, fakeTxManager{})

	got, err := svc.GetOrCreateByName(context.Background(), "Distribuidora Nova")
	require.NoError(t, err)
	assert.Equal(t, "Distribuidora Nova", got.Name)
	require.Len(t, repo.created, 1)
}

func TestGetOrCreateByName_PropagatesLookupFailure(t *testing.T) {
	repo := &fakeRepo{getNameErr: errors.New("connection reset")}
	svc := NewService(repo, fakeTxManager{})

	_, err := svc.GetOrCreateByName(context.Background(), "Distribuidora Nova")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")

	// The failure must not be masked by an auto-register attempt.
	assert.Empty(t, repo.created)
}
