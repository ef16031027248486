package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tapeset/wfst/server/dao"
)

func NewTransducersRepository() *InMemoryTransducersRepository {
	return &InMemoryTransducersRepository{
		transducers: make(map[uuid.UUID]dao.Transducer),
		byOwnerName: make(map[uuid.UUID]map[string]uuid.UUID),
	}
}

type InMemoryTransducersRepository struct {
	transducers map[uuid.UUID]dao.Transducer
	byOwnerName map[uuid.UUID]map[string]uuid.UUID
}

func (r *InMemoryTransducersRepository) Close() error {
	return nil
}

func (r *InMemoryTransducersRepository) Create(ctx context.Context, t dao.Transducer) (dao.Transducer, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Transducer{}, fmt.Errorf("could not generate ID: %w", err)
	}

	t.ID = newUUID

	names := r.byOwnerName[t.OwnerID]
	if names == nil {
		names = make(map[string]uuid.UUID)
	} else if _, ok := names[t.Name]; ok {
		return dao.Transducer{}, dao.ErrConstraintViolation
	}

	t.Created = time.Now()
	t.Modified = t.Created

	r.transducers[t.ID] = t
	names[t.Name] = t.ID
	r.byOwnerName[t.OwnerID] = names

	return t, nil
}

func (r *InMemoryTransducersRepository) GetAll(ctx context.Context) ([]dao.Transducer, error) {
	all := make([]dao.Transducer, 0, len(r.transducers))
	for k := range r.transducers {
		all = append(all, r.transducers[k])
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (r *InMemoryTransducersRepository) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Transducer, error) {
	names := r.byOwnerName[ownerID]
	all := make([]dao.Transducer, 0, len(names))
	for _, id := range names {
		all = append(all, r.transducers[id])
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all, nil
}

func (r *InMemoryTransducersRepository) Update(ctx context.Context, id uuid.UUID, t dao.Transducer) (dao.Transducer, error) {
	existing, ok := r.transducers[id]
	if !ok {
		return dao.Transducer{}, dao.ErrNotFound
	}

	if t.OwnerID != existing.OwnerID || t.Name != existing.Name {
		names := r.byOwnerName[t.OwnerID]
		if _, ok := names[t.Name]; ok {
			return dao.Transducer{}, dao.ErrConstraintViolation
		}
	}

	t.Modified = time.Now()

	oldNames := r.byOwnerName[existing.OwnerID]
	delete(oldNames, existing.Name)

	newNames := r.byOwnerName[t.OwnerID]
	if newNames == nil {
		newNames = make(map[string]uuid.UUID)
	}
	newNames[t.Name] = id
	r.byOwnerName[t.OwnerID] = newNames

	r.transducers[id] = t

	return t, nil
}

func (r *InMemoryTransducersRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Transducer, error) {
	t, ok := r.transducers[id]
	if !ok {
		return dao.Transducer{}, dao.ErrNotFound
	}

	return t, nil
}

func (r *InMemoryTransducersRepository) GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (dao.Transducer, error) {
	names := r.byOwnerName[ownerID]
	id, ok := names[name]
	if !ok {
		return dao.Transducer{}, dao.ErrNotFound
	}

	return r.transducers[id], nil
}

func (r *InMemoryTransducersRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Transducer, error) {
	t, ok := r.transducers[id]
	if !ok {
		return dao.Transducer{}, dao.ErrNotFound
	}

	delete(r.transducers, id)
	names := r.byOwnerName[t.OwnerID]
	delete(names, t.Name)

	return t, nil
}
