// Package backup encodes the contact register as a JSON document and decodes
// import payloads back into candidate records.
//
// The exported document is a pretty-printed JSON array of
// {id, name, email, phone} objects. The import side accepts the same shape;
// any "id" field is dropped because the store is the only authority on
// identity.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/contactos/internal/contact"
)

// DefaultFileName is the name offered for an exported backup.
const DefaultFileName = "contactos_backup.json"

// Lister is the read side of the store used by Export.
type Lister interface {
	GetAll(ctx context.Context) ([]contact.Contact, error)
}

// Export writes every contact in l to w and returns how many were written.
func Export(ctx context.Context, l Lister, w io.Writer) (int, error) {
	contacts, err := l.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	if err := Encode(w, contacts); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(contacts), nil
}

// Encode writes contacts as an indented JSON array. HTML characters are not
// escaped so names and emails round-trip byte for byte.
func Encode(w io.Writer, contacts []contact.Contact) error {
	if contacts == nil {
		contacts = []contact.Contact{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(contacts); err != nil {
		return fmt.Errorf("encode contacts: %w", err)
	}
	return nil
}

// record is the wire shape of one imported element. Fields are left empty
// when absent; the importer reports them per record.
type record struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Record is one element of an import payload. Err is set when the element
// could not be read as a contact; Input is zero in that case.
type Record struct {
	Input contact.Input
	Err   error
}

// Decode reads a JSON array of contact objects.
//
// Returns contact.ErrMalformedInput only when the payload as a whole is not a
// JSON array. An element that is not an object, or that carries a field of
// the wrong type, yields a Record with Err wrapping contact.ErrInvalid so the
// rest of the batch still goes through. Missing fields are not an error here.
func Decode(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import payload: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array of contacts", contact.ErrMalformedInput)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", contact.ErrMalformedInput, err)
	}

	records := make([]Record, 0, len(elems))
	for _, raw := range elems {
		records = append(records, decodeElement(raw))
	}
	return records, nil
}

func decodeElement(raw json.RawMessage) Record {
	elem := bytes.TrimSpace(raw)
	if len(elem) == 0 || elem[0] != '{' {
		return Record{Err: fmt.Errorf("%w: record is not an object", contact.ErrInvalid)}
	}

	var rec record
	if err := json.Unmarshal(elem, &rec); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return Record{Err: fmt.Errorf("%w: %s must be a string", contact.ErrInvalid, typeErr.Field)}
		}
		return Record{Err: fmt.Errorf("%w: %w", contact.ErrInvalid, err)}
	}
	return Record{Input: contact.Input{Name: rec.Name, Email: rec.Email, Phone: rec.Phone}}
}
