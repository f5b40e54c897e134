package domain

// IdentifierKind selects which credential column a user lookup keys on.
type IdentifierKind int

const (
	ByID IdentifierKind = iota + 1
	ByEmail
	ByUsername
)

// Identifier is the tagged "id or email or username" union resolved at
// the boundary before the session protocol runs.
type Identifier struct {
	kind  IdentifierKind
	value string
}

func UserByID(id string) Identifier         { return Identifier{kind: ByID, value: id} }
func UserByEmail(email string) Identifier   { return Identifier{kind: ByEmail, value: email} }
func UserByUsername(name string) Identifier { return Identifier{kind: ByUsername, value: name} }

func (i Identifier) Kind() IdentifierKind { return i.kind }
func (i Identifier) Value() string        { return i.value }

// IsZero reports an identifier that was never set, or set to an empty
// value.
func (i Identifier) IsZero() bool { return i.kind == 0 || i.value == "" }
