package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/contactos/internal/contact"
)

// Get retrieves a single contact by ID.
// Returns contact.ErrNotFound if no record has that ID.
func (s *Store) Get(ctx context.Context, id int64) (contact.Contact, error) {
	c, err := getByID(ctx, s.db, id)
	s.observe("get", err)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("get contact %d: %w", id, err)
	}
	return c, nil
}

// GetAll returns every contact ordered by ID.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) GetAll(ctx context.Context) ([]contact.Contact, error) {
	contacts, err := queryContacts(ctx, s.db, `
		SELECT id, name, email, phone
		FROM contacts
		ORDER BY id ASC
	`)
	s.observe("get_all", err)
	if err != nil {
		return nil, fmt.Errorf("get all contacts: %w", err)
	}
	return contacts, nil
}

// FindByNameSubstring returns the contacts whose name contains query,
// ignoring case. A blank or whitespace-only query returns every contact.
func (s *Store) FindByNameSubstring(ctx context.Context, query string) ([]contact.Contact, error) {
	if strings.TrimSpace(query) == "" {
		return s.GetAll(ctx)
	}

	// instr, not LIKE: the folded query is matched literally, so % and _
	// in a name need no escaping.
	contacts, err := queryContacts(ctx, s.db, `
		SELECT id, name, email, phone
		FROM contacts
		WHERE instr(name_folded, ?) > 0
		ORDER BY id ASC
	`, contact.FoldName(query))
	s.observe("find_by_name", err)
	if err != nil {
		return nil, fmt.Errorf("find contacts by name: %w", err)
	}
	return contacts, nil
}

// FindByEmail looks up the contact owning email via the unique index.
// The comparison is exact: no case folding or trimming.
func (s *Store) FindByEmail(ctx context.Context, email string) (contact.Contact, bool, error) {
	c, found, err := findByEmail(ctx, s.db, email)
	s.observe("find_by_email", err)
	if err != nil {
		return contact.Contact{}, false, fmt.Errorf("find contact by email: %w", err)
	}
	return c, found, nil
}

// Count returns the number of stored contacts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	s.observe("count", err)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func getByID(ctx context.Context, q querier, id int64) (contact.Contact, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, email, phone
		FROM contacts
		WHERE id = ?
	`, id)

	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, contact.ErrNotFound
	}
	return c, err
}

func findByEmail(ctx context.Context, q querier, email string) (contact.Contact, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, email, phone
		FROM contacts
		WHERE email = ?
	`, email)

	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, false, nil
	}
	if err != nil {
		return contact.Contact{}, false, err
	}
	return c, true, nil
}

func queryContacts(ctx context.Context, q querier, query string, args ...any) ([]contact.Contact, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []contact.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (contact.Contact, error) {
	var c contact.Contact
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, err
		}
		return contact.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}
