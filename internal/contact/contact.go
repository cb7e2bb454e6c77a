package contact

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Contact is a persisted contact record.
type Contact struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Input is a candidate contact that has not been given an identity yet.
// Create and import take an Input so a caller can never supply an ID.
type Input struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Input returns the identity-less fields of c.
func (c Contact) Input() Input {
	return Input{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// String renders c on one line for text output.
func (c Contact) String() string {
	return fmt.Sprintf("#%d %s <%s> %s", c.ID, c.Name, c.Email, c.Phone)
}

// Validate reports the first required field that is empty or blank.
// The returned error wraps ErrInvalid.
func (in Input) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return &ValidationError{Field: "name"}
	case strings.TrimSpace(in.Email) == "":
		return &ValidationError{Field: "email"}
	case strings.TrimSpace(in.Phone) == "":
		return &ValidationError{Field: "phone"}
	}
	return nil
}

// Validate checks the record fields of c. The ID is not checked here; the
// store decides whether it refers to an existing record.
func (c Contact) Validate() error {
	return c.Input().Validate()
}

// FoldName returns the search key for a name: NFC normalised, then case
// folded. A name matches a query case-insensitively when its folded key
// contains the folded query.
func FoldName(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}
