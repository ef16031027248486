package tunas

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/ops"
	"github.com/tapeset/wfst/ioformat"
	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/serr"
	"github.com/tapeset/wfst/symtab"
)

// GetAllTransducers returns all transducers owned by the given account.
func (svc Service) GetAllTransducers(ctx context.Context, ownerID uuid.UUID) ([]dao.Transducer, error) {
	trs, err := svc.DB.Transducers().GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return trs, nil
}

// GetTransducer returns the transducer owned by ownerID with the given name.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no transducer with that
// name exists for the owner, it will match serr.ErrNotFound. If the error
// occured due to an unexpected problem with the DB, it will match serr.ErrDB.
func (svc Service) GetTransducer(ctx context.Context, ownerID uuid.UUID, name string) (dao.Transducer, error) {
	if name == "" {
		return dao.Transducer{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}

	tr, err := svc.DB.Transducers().GetByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Transducer{}, serr.ErrNotFound
		}
		return dao.Transducer{}, serr.WrapDB("could not get transducer", err)
	}

	return tr, nil
}

// CreateTransducer compiles srcData (encoded per format) and, if it parses
// without error, stores it under name for ownerID. Returns the stored
// transducer.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a transducer with that
// name already exists for the owner, it will match serr.ErrAlreadyExists. If
// srcData does not parse as a valid transducer in the given format, it will
// match serr.ErrBadArgument. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (svc Service) CreateTransducer(ctx context.Context, ownerID uuid.UUID, name string, format dao.Format, srcData []byte) (dao.Transducer, error) {
	if name == "" {
		return dao.Transducer{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}

	if _, err := decodeTransducer(symtab.New(), format, srcData); err != nil {
		return dao.Transducer{}, serr.New("could not parse transducer data", err, serr.ErrBadArgument)
	}

	_, err := svc.DB.Transducers().GetByOwnerAndName(ctx, ownerID, name)
	if err == nil {
		return dao.Transducer{}, serr.New("a transducer with that name already exists", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return dao.Transducer{}, serr.WrapDB("", err)
	}

	newTr := dao.Transducer{
		OwnerID: ownerID,
		Name:    name,
		Format:  format,
		Data:    srcData,
	}

	tr, err := svc.DB.Transducers().Create(ctx, newTr)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Transducer{}, serr.ErrAlreadyExists
		}
		return dao.Transducer{}, serr.WrapDB("could not create transducer", err)
	}

	return tr, nil
}

// DeleteTransducer deletes the transducer owned by ownerID with the given
// name. Returns the deleted transducer just after it was deleted.
func (svc Service) DeleteTransducer(ctx context.Context, ownerID uuid.UUID, name string) (dao.Transducer, error) {
	existing, err := svc.DB.Transducers().GetByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Transducer{}, serr.ErrNotFound
		}
		return dao.Transducer{}, serr.WrapDB("", err)
	}

	deleted, err := svc.DB.Transducers().Delete(ctx, existing.ID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Transducer{}, serr.ErrNotFound
		}
		return dao.Transducer{}, serr.WrapDB("could not delete transducer", err)
	}

	return deleted, nil
}

// LookupResult is one accepted output string for a Lookup call, along with
// the weight of the path that produced it.
type LookupResult struct {
	Output string
	Weight float64
}

// Lookup decodes the transducer owned by ownerID with the given name and runs
// a lookup of input against it. If bySymbol is true, input is split on
// whitespace and each field is treated as a single symbol to intern; if
// false, input is split into one symbol per rune.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no transducer with that
// name exists, it will match serr.ErrNotFound. If the stored transducer data
// fails to decode, it will match serr.ErrDB.
func (svc Service) Lookup(ctx context.Context, ownerID uuid.UUID, name, input string, bySymbol bool, maxResults int) ([]LookupResult, error) {
	tr, err := svc.DB.Transducers().GetByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, serr.ErrNotFound
		}
		return nil, serr.WrapDB("", err)
	}

	table := symtab.New()
	g, err := decodeTransducer(table, tr.Format, tr.Data)
	if err != nil {
		return nil, serr.New("stored transducer data could not be decoded", err, serr.ErrDB)
	}

	var symbols []string
	if bySymbol {
		symbols = strings.Fields(input)
	} else {
		for _, r := range input {
			symbols = append(symbols, string(r))
		}
	}

	ids := make([]uint32, len(symbols))
	for i, s := range symbols {
		ids[i] = table.MustIntern(s)
	}

	hits, err := ops.Lookup(ctx, g, ids, ops.LookupOptions{MaxResults: maxResults})
	if err != nil {
		return nil, serr.New("lookup failed", err)
	}

	results := make([]LookupResult, len(hits))
	for i, hit := range hits {
		var sb strings.Builder
		for j, id := range hit.Output {
			if j > 0 && bySymbol {
				sb.WriteByte(' ')
			}
			sym, _ := table.Lookup(id)
			sb.WriteString(sym)
		}
		results[i] = LookupResult{Output: sb.String(), Weight: float64(hit.Weight)}
	}

	return results, nil
}

// decodeTransducer is shared between CreateTransducer's validation pass and
// Lookup's load path. table must be a fresh Table owned solely by the caller:
// a stored transducer's symbol ids are only meaningful relative to the table
// they were decoded into, so the same table must also be used to intern any
// lookup input run against the decoded graph.
func decodeTransducer(table *symtab.Table, format dao.Format, data []byte) (*fst.Graph, error) {
	r := bytes.NewReader(data)

	switch format {
	case dao.FormatBinary:
		return ioformat.ReadBinary(r, table)
	case dao.FormatATT:
		gs, err := ioformat.ReadATT(r, table)
		if err != nil {
			return nil, err
		}
		if len(gs) == 0 {
			return nil, serr.New("no transducer found in AT&T data", serr.ErrBadArgument)
		}
		return gs[0], nil
	case dao.FormatProlog:
		gs, err := ioformat.ReadProlog(r, table)
		if err != nil {
			return nil, err
		}
		if len(gs) == 0 {
			return nil, serr.New("no transducer found in Prolog data", serr.ErrBadArgument)
		}
		return gs[0], nil
	default:
		return nil, serr.New("unknown transducer format", serr.ErrBadArgument)
	}
}
