package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/contactos/internal/contact"
)

// querier is the statement surface shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a new contact and returns it with its assigned ID.
//
// The email check and the insert run in one transaction: if the email is
// already taken the call fails with contact.ErrDuplicateEmail and the store
// is left unchanged. The record is committed before Create returns.
func (s *Store) Create(ctx context.Context, in contact.Input) (contact.Contact, error) {
	c, inserted, err := s.insertIfAbsent(ctx, in)
	if err == nil && !inserted {
		err = fmt.Errorf("%w: %s", contact.ErrDuplicateEmail, in.Email)
	}
	s.observe("create", err)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("create contact: %w", err)
	}

	s.logger.Debug("contact created", "id", c.ID)
	return c, nil
}

// InsertIfAbsent inserts in unless its email is already stored.
//
// Returns:
//   - the new contact and inserted=true when a row was written
//   - the existing owner of the email and inserted=false otherwise
//
// The lookup and the insert are one atomic unit. Used by the importer, which
// treats an existing email as a skip rather than an error.
func (s *Store) InsertIfAbsent(ctx context.Context, in contact.Input) (contact.Contact, bool, error) {
	c, inserted, err := s.insertIfAbsent(ctx, in)
	s.observe("insert_if_absent", err)
	if err != nil {
		return contact.Contact{}, false, fmt.Errorf("insert contact: %w", err)
	}
	return c, inserted, nil
}

func (s *Store) insertIfAbsent(ctx context.Context, in contact.Input) (c contact.Contact, inserted bool, err error) {
	if err := in.Validate(); err != nil {
		return contact.Contact{}, false, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		existing, found, err := findByEmail(ctx, tx, in.Email)
		if err != nil {
			return err
		}
		if found {
			c = existing
			return nil
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (name, name_folded, email, phone)
			VALUES (?, ?, ?, ?)
		`, in.Name, contact.FoldName(in.Name), in.Email, in.Phone)
		if err != nil {
			return mapConstraintErr(err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		c = contact.Contact{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone}
		inserted = true
		return nil
	})
	if err != nil {
		return contact.Contact{}, false, err
	}
	return c, inserted, nil
}

// Update replaces every field of the record identified by c.ID.
//
// Fails with contact.ErrNotFound if no such record exists and with
// contact.ErrDuplicateEmail if c.Email belongs to a different record.
// Keeping one's own email is not a conflict.
func (s *Store) Update(ctx context.Context, c contact.Contact) error {
	err := s.update(ctx, c)
	s.observe("update", err)
	if err != nil {
		return fmt.Errorf("update contact %d: %w", c.ID, err)
	}

	s.logger.Debug("contact updated", "id", c.ID)
	return nil
}

func (s *Store) update(ctx context.Context, c contact.Contact) error {
	if c.ID <= 0 {
		return contact.ErrNotFound
	}
	if err := c.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getByID(ctx, tx, c.ID); err != nil {
			return err
		}
		return replace(ctx, tx, c)
	})
}

// Modify loads the record with the given id, lets fn change its fields and
// writes it back. The read and the write share one transaction, so a
// concurrent writer cannot slip a change in between. fn cannot change the ID.
//
// Fails like Update: contact.ErrNotFound, contact.ErrInvalid or
// contact.ErrDuplicateEmail, leaving the record untouched.
func (s *Store) Modify(ctx context.Context, id int64, fn func(c *contact.Contact)) (contact.Contact, error) {
	c, err := s.modify(ctx, id, fn)
	s.observe("modify", err)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("modify contact %d: %w", id, err)
	}

	s.logger.Debug("contact modified", "id", id)
	return c, nil
}

func (s *Store) modify(ctx context.Context, id int64, fn func(c *contact.Contact)) (c contact.Contact, err error) {
	if id <= 0 {
		return contact.Contact{}, contact.ErrNotFound
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		fn(&current)
		current.ID = id
		if err := current.Validate(); err != nil {
			return err
		}
		if err := replace(ctx, tx, current); err != nil {
			return err
		}
		c = current
		return nil
	})
	if err != nil {
		return contact.Contact{}, err
	}
	return c, nil
}

// replace overwrites an existing row. The caller has checked that c.ID exists.
func replace(ctx context.Context, tx *sql.Tx, c contact.Contact) error {
	owner, found, err := findByEmail(ctx, tx, c.Email)
	if err != nil {
		return err
	}
	if found && owner.ID != c.ID {
		return fmt.Errorf("%w: %s is used by contact %d", contact.ErrDuplicateEmail, c.Email, owner.ID)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, name_folded = ?, email = ?, phone = ?
		WHERE id = ?
	`, c.Name, contact.FoldName(c.Name), c.Email, c.Phone, c.ID)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

// Delete removes the record with the given id. Deleting an id that does not
// exist is a no-op, not an error. The id is never reassigned.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	s.observe("delete", err)
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}

	if n, err := result.RowsAffected(); err == nil {
		s.logger.Debug("contact deleted", "id", id, "removed", n > 0)
	}
	return nil
}

// mapConstraintErr turns a UNIQUE violation on the email index into
// contact.ErrDuplicateEmail. Other errors pass through unchanged.
func mapConstraintErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %w", contact.ErrDuplicateEmail, err)
	}
	return err
}
