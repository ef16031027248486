package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/tapeset/wfst/server/dao"
)

func NewAccountsDBConn(file string) (*AccountsDB, error) {
	repo := &AccountsDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init()
}

type AccountsDB struct {
	db *sql.DB
}

func (repo *AccountsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role INTEGER NOT NULL,
		email TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		last_login_time INTEGER NOT NULL,
		last_logout_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *AccountsDB) Create(ctx context.Context, acc dao.Account) (dao.Account, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Account{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()

	stmt, err := repo.db.Prepare(`INSERT INTO accounts (id, username, password, role, email, created, modified, last_login_time, last_logout_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Account{}, wrapDBError(err)
	}
	_, err = stmt.ExecContext(ctx,
		newUUID.String(),
		acc.Username,
		acc.Password,
		convertToDB_Role(acc.Role),
		convertToDB_Email(acc.Email),
		convertToDB_Time(now),
		convertToDB_Time(now),
		convertToDB_Time(acc.LastLoginTime),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Account{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *AccountsDB) GetAll(ctx context.Context) ([]dao.Account, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, username, password, role, email, created, modified, last_login_time, last_logout_time FROM accounts;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Account

	for rows.Next() {
		acc, err := scanAccount(rows.Scan)
		if err != nil {
			return all, err
		}
		all = append(all, acc)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *AccountsDB) Update(ctx context.Context, id uuid.UUID, acc dao.Account) (dao.Account, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE accounts SET id=?, username=?, password=?, role=?, email=?, modified=?, last_login_time=?, last_logout_time=? WHERE id=?;`,
		acc.ID.String(),
		acc.Username,
		acc.Password,
		convertToDB_Role(acc.Role),
		convertToDB_Email(acc.Email),
		convertToDB_Time(time.Now()),
		convertToDB_Time(acc.LastLoginTime),
		convertToDB_Time(acc.LastLogoutTime),
		id.String(),
	)
	if err != nil {
		return dao.Account{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Account{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Account{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, acc.ID)
}

func (repo *AccountsDB) GetByUsername(ctx context.Context, username string) (dao.Account, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, username, password, role, email, created, modified, last_login_time, last_logout_time FROM accounts WHERE username = ?;`,
		username,
	)
	return scanAccount(row.Scan)
}

func (repo *AccountsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Account, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, username, password, role, email, created, modified, last_login_time, last_logout_time FROM accounts WHERE id = ?;`,
		id.String(),
	)
	return scanAccount(row.Scan)
}

func (repo *AccountsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Account, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
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

func (repo *AccountsDB) Close() error {
	return nil
}

// scanAccount builds a dao.Account from a single-row Scan func, shared by
// every AccountsDB read path above.
func scanAccount(scan func(dest ...any) error) (dao.Account, error) {
	var acc dao.Account
	var id, role, email string
	var created, modified, lastLogin, lastLogout int64

	err := scan(&id, &acc.Username, &acc.Password, &role, &email, &created, &modified, &lastLogin, &lastLogout)
	if err != nil {
		return dao.Account{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &acc.ID); err != nil {
		return dao.Account{}, err
	}
	if err := convertFromDB_Role(role, &acc.Role); err != nil {
		return dao.Account{}, err
	}
	var emailPtr *mail.Address
	if err := convertFromDB_Email(email, &emailPtr); err != nil {
		return dao.Account{}, err
	}
	acc.Email = emailPtr
	convertFromDB_Time(created, &acc.Created)
	convertFromDB_Time(modified, &acc.Modified)
	convertFromDB_Time(lastLogin, &acc.LastLoginTime)
	convertFromDB_Time(lastLogout, &acc.LastLogoutTime)

	return acc, nil
}
