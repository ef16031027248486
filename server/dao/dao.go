// Package dao provides data access objects for the wfstd transducer
// repository service.
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories that back wfstd.
type Store interface {
	Accounts() AccountRepository
	Transducers() TransducerRepository
	Close() error
}

// Role is the access level of an Account.
type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

// Account is a registered user of the transducer repository.
type Account struct {
	ID             uuid.UUID     // PK, NOT NULL
	Username       string        // UNIQUE, NOT NULL
	Password       string        // NOT NULL
	Email          *mail.Address // NOT NULL
	Role           Role          // NOT NULL
	Created        time.Time     // NOT NULL
	Modified       time.Time
	LastLogoutTime time.Time // NOT NULL DEFAULT NOW()
	LastLoginTime  time.Time // NOT NULL
}

type AccountRepository interface {
	// Create creates a new Account. All attributes except for auto-generated
	// fields are taken from the provided Account.
	Create(ctx context.Context, acc Account) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetAll(ctx context.Context) ([]Account, error)
	Update(ctx context.Context, id uuid.UUID, acc Account) (Account, error)
	Delete(ctx context.Context, id uuid.UUID) (Account, error)

	// Close closes the connection.
	Close() error
}

// Format names the on-disk encoding a Transducer's Data is stored in.
type Format int

const (
	FormatBinary Format = iota
	FormatATT
	FormatProlog
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatATT:
		return "att"
	case FormatProlog:
		return "prolog"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "binary":
		return FormatBinary, nil
	case "att":
		return FormatATT, nil
	case "prolog":
		return FormatProlog, nil
	default:
		return FormatBinary, fmt.Errorf("must be one of 'binary', 'att', or 'prolog'")
	}
}

// Transducer is a named, persisted compiled transducer owned by an Account.
// Data holds the transducer encoded in Format; the repository never
// interprets Data's contents, it is opaque storage for whatever ioformat
// writer produced it.
type Transducer struct {
	ID       uuid.UUID // PK, NOT NULL
	OwnerID  uuid.UUID // FK (Many-to-One Account.ID), NOT NULL
	Name     string    // NOT NULL
	Format   Format    // NOT NULL
	Data     []byte    // NOT NULL
	Created  time.Time // NOT NULL
	Modified time.Time
}

type TransducerRepository interface {
	Create(ctx context.Context, t Transducer) (Transducer, error)
	GetByID(ctx context.Context, id uuid.UUID) (Transducer, error)
	GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (Transducer, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]Transducer, error)
	GetAll(ctx context.Context) ([]Transducer, error)
	Update(ctx context.Context, id uuid.UUID, t Transducer) (Transducer, error)
	Delete(ctx context.Context, id uuid.UUID) (Transducer, error)
	Close() error
}
