package api

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received
// from and sent to the client.

type InfoModel struct {
	Version struct {
		Server string `json:"server"`
	} `json:"version"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
}

type AccountModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Email          string `json:"email,"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout,omitempty"`
	LastLoginTime  string `json:"last_login,omitempty"`
}

type AccountUpdateRequest struct {
	ID       UpdateString `json:"id,omitempty"`
	Username UpdateString `json:"username,omitempty"`
	Password UpdateString `json:"password,omitempty"`
	Email    UpdateString `json:"email,"`
	Role     UpdateString `json:"role,omitempty"`
}

type UpdateString struct {
	Update bool   `json:"u,omitempty"`
	Value  string `json:"v,omitempty"`
}

// TransducerModel is the client-facing view of a stored transducer. Data is
// base64 of whatever ioformat encoding Format names, so that non-binary
// formats (att, prolog) can still be round-tripped through JSON untouched by
// the transport.
type TransducerModel struct {
	URI      string `json:"uri"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	OwnerID  string `json:"owner_id,omitempty"`
	Format   string `json:"format,omitempty"`
	Data     string `json:"data,omitempty"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// TransducerCreateRequest is the body of a POST to create or replace a
// stored transducer from source text in one of the ioformat encodings.
type TransducerCreateRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Data   string `json:"data"`
}

// LookupRequest runs a lookup of Input (space-separated symbols, or a bare
// string to be looked up byte-by-byte if Symbols is false) against a stored
// transducer.
type LookupRequest struct {
	Input      string `json:"input"`
	BySymbol   bool   `json:"by_symbol"`
	MaxResults int    `json:"max_results"`
}

type LookupResponse struct {
	Results []LookupResultModel `json:"results"`
}

type LookupResultModel struct {
	Output string  `json:"output"`
	Weight float64 `json:"weight"`
}
