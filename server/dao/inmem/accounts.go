package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tapeset/wfst/server/dao"
)

func NewAccountsRepository() *InMemoryAccountsRepository {
	return &InMemoryAccountsRepository{
		accounts:        make(map[uuid.UUID]dao.Account),
		byUsernameIndex: make(map[string]uuid.UUID),
	}
}

type InMemoryAccountsRepository struct {
	accounts        map[uuid.UUID]dao.Account
	byUsernameIndex map[string]uuid.UUID
}

func (r *InMemoryAccountsRepository) Close() error {
	return nil
}

func (r *InMemoryAccountsRepository) Create(ctx context.Context, acc dao.Account) (dao.Account, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Account{}, fmt.Errorf("could not generate ID: %w", err)
	}

	acc.ID = newUUID

	if _, ok := r.byUsernameIndex[acc.Username]; ok {
		return dao.Account{}, dao.ErrConstraintViolation
	}

	acc.LastLogoutTime = time.Now()
	acc.Created = time.Now()

	r.accounts[acc.ID] = acc
	r.byUsernameIndex[acc.Username] = acc.ID

	return acc, nil
}

func (r *InMemoryAccountsRepository) GetAll(ctx context.Context) ([]dao.Account, error) {
	all := make([]dao.Account, 0, len(r.accounts))
	for k := range r.accounts {
		all = append(all, r.accounts[k])
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (r *InMemoryAccountsRepository) Update(ctx context.Context, id uuid.UUID, acc dao.Account) (dao.Account, error) {
	existing, ok := r.accounts[id]
	if !ok {
		return dao.Account{}, dao.ErrNotFound
	}

	if acc.Username != existing.Username {
		if _, ok := r.byUsernameIndex[acc.Username]; ok {
			return dao.Account{}, dao.ErrConstraintViolation
		}
	} else if acc.ID != id {
		if _, ok := r.accounts[acc.ID]; ok {
			return dao.Account{}, dao.ErrConstraintViolation
		}
	}

	r.accounts[acc.ID] = acc
	r.byUsernameIndex[acc.Username] = acc.ID
	if acc.ID != id {
		delete(r.accounts, id)
	}

	return acc, nil
}

func (r *InMemoryAccountsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return dao.Account{}, dao.ErrNotFound
	}

	return acc, nil
}

func (r *InMemoryAccountsRepository) GetByUsername(ctx context.Context, username string) (dao.Account, error) {
	id, ok := r.byUsernameIndex[username]
	if !ok {
		return dao.Account{}, dao.ErrNotFound
	}

	return r.accounts[id], nil
}

func (r *InMemoryAccountsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return dao.Account{}, dao.ErrNotFound
	}

	delete(r.byUsernameIndex, acc.Username)
	delete(r.accounts, acc.ID)

	return acc, nil
}
