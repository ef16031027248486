package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tapeset/wfst/server/dao"
)

func NewTransducersDBConn(file string) (*TransducersDB, error) {
	repo := &TransducersDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init(false)
}

type TransducersDB struct {
	db *sql.DB
}

func (repo *TransducersDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS transducers (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES accounts(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		name TEXT NOT NULL,
		format TEXT NOT NULL,
		data TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		UNIQUE(owner_id, name)
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *TransducersDB) Create(ctx context.Context, t dao.Transducer) (dao.Transducer, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Transducer{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO transducers (id, owner_id, name, format, data, created, modified) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		newUUID.String(),
		convertToDB_UUID(t.OwnerID),
		t.Name,
		convertToDB_Format(t.Format),
		convertToDB_ByteSlice(t.Data),
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Transducer{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *TransducersDB) GetAll(ctx context.Context) ([]dao.Transducer, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, owner_id, name, format, data, created, modified FROM transducers;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return scanTransducerRows(rows)
}

func (repo *TransducersDB) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Transducer, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, owner_id, name, format, data, created, modified FROM transducers WHERE owner_id = ? ORDER BY name;`, ownerID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return scanTransducerRows(rows)
}

func (repo *TransducersDB) Update(ctx context.Context, id uuid.UUID, t dao.Transducer) (dao.Transducer, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE transducers SET id=?, owner_id=?, name=?, format=?, data=?, modified=? WHERE id=?;`,
		t.ID.String(),
		convertToDB_UUID(t.OwnerID),
		t.Name,
		convertToDB_Format(t.Format),
		convertToDB_ByteSlice(t.Data),
		convertToDB_Time(time.Now()),
		id.String(),
	)
	if err != nil {
		return dao.Transducer{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Transducer{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Transducer{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, t.ID)
}

func (repo *TransducersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Transducer, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, owner_id, name, format, data, created, modified FROM transducers WHERE id = ?;`, id.String())
	return scanTransducer(row.Scan)
}

func (repo *TransducersDB) GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (dao.Transducer, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, owner_id, name, format, data, created, modified FROM transducers WHERE owner_id = ? AND name = ?;`, ownerID.String(), name)
	return scanTransducer(row.Scan)
}

func (repo *TransducersDB) Delete(ctx context.Context, id uuid.UUID) (dao.Transducer, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM transducers WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *TransducersDB) Close() error {
	return nil
}

func scanTransducerRows(rows *sql.Rows) ([]dao.Transducer, error) {
	var all []dao.Transducer
	for rows.Next() {
		t, err := scanTransducer(rows.Scan)
		if err != nil {
			return all, err
		}
		all = append(all, t)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	return all, nil
}

func scanTransducer(scan func(dest ...any) error) (dao.Transducer, error) {
	var t dao.Transducer
	var id, ownerID, format, data string
	var created, modified int64

	err := scan(&id, &ownerID, &t.Name, &format, &data, &created, &modified)
	if err != nil {
		return dao.Transducer{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &t.ID); err != nil {
		return dao.Transducer{}, err
	}
	if err := convertFromDB_UUID(ownerID, &t.OwnerID); err != nil {
		return dao.Transducer{}, err
	}
	if err := convertFromDB_Format(format, &t.Format); err != nil {
		return dao.Transducer{}, err
	}
	if err := convertFromDB_ByteSlice(data, &t.Data); err != nil {
		return dao.Transducer{}, err
	}
	convertFromDB_Time(created, &t.Created)
	convertFromDB_Time(modified, &t.Modified)

	return t, nil
}
