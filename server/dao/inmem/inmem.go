// Package inmem provides an in-memory dao.Store implementation, suitable
// for tests and for running wfstd without a persistent backing store.
package inmem

import (
	"fmt"

	"github.com/tapeset/wfst/server/dao"
)

type store struct {
	accounts    *InMemoryAccountsRepository
	transducers *InMemoryTransducersRepository
}

func NewDatastore() dao.Store {
	return &store{
		accounts:    NewAccountsRepository(),
		transducers: NewTransducersRepository(),
	}
}

func (s *store) Accounts() dao.AccountRepository {
	return s.accounts
}

func (s *store) Transducers() dao.TransducerRepository {
	return s.transducers
}

func (s *store) Close() error {
	var err error

	nextErr := s.accounts.Close()
	if nextErr != nil {
		err = nextErr
	}
	nextErr = s.transducers.Close()
	if nextErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
