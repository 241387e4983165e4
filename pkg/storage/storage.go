package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("storage: document not found")

// Entry summarizes an archived document without its body.
type Entry struct {
	ID        ksuid.KSUID
	Kind      Kind
	Name      string
	Size      int
	CreatedAt time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the archive logger.
func WithLogger(log *logrus.Entry) Option {
	return func(a *Archive) {
		a.log = log
	}
}

// WithSync makes every write wait for the WAL to reach disk.
func WithSync(sync bool) Option {
	return func(a *Archive) {
		if sync {
			a.writeOpts = pebble.Sync
		} else {
			a.writeOpts = pebble.NoSync
		}
	}
}

// Archive stores framed documents in pebble keyed by KSUID.
type Archive struct {
	db        *pebble.DB
	codec     *RecordCodec
	writeOpts *pebble.WriteOptions
	log       *logrus.Entry
}

// Open opens or creates an archive in dir.
func Open(dir string, opts ...Option) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive at %s: %w", dir, err)
	}

	a := &Archive{
		db:        db,
		codec:     NewRecordCodec(),
		writeOpts: pebble.NoSync,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logrus.NewEntry(logrus.StandardLogger())
	}
	a.log.WithField("dir", dir).Debug("archive opened")
	return a, nil
}

// Create archives a new document and returns its id.
func (a *Archive) Create(kind Kind, name string, body []byte) (ksuid.KSUID, error) {
	data, err := a.codec.Encode(kind, []byte(name), body)
	if err != nil {
		return ksuid.Nil, err
	}

	id := ksuid.New()
	if err := a.db.Set(id.Bytes(), data, a.writeOpts); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store document: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"id":   id.String(),
		"kind": kind.String(),
		"size": len(body),
	}).Debug("document archived")
	return id, nil
}

// Read returns the record stored under id after verifying its checksum.
func (a *Archive) Read(id ksuid.KSUID) (*Record, error) {
	data, closer, err := a.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	// data is only valid until closer.Close
	owned := append([]byte(nil), data...)
	closer.Close()

	r, err := a.codec.Decode(owned)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	if err := r.Validate(); err != nil {
		a.log.WithField("id", id.String()).WithError(err).Warn("corrupt document")
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return r, nil
}

// Update replaces the body of an existing document, keeping its kind and name.
func (a *Archive) Update(id ksuid.KSUID, body []byte) error {
	old, err := a.Read(id)
	if err != nil {
		return err
	}

	data := a.codec.EncodeRecord(NewRecord(old.Kind, old.Name, body))
	if err := a.db.Set(id.Bytes(), data, a.writeOpts); err != nil {
		return fmt.Errorf("failed to update document %s: %w", id, err)
	}
	return nil
}

// Delete removes a document.
func (a *Archive) Delete(id ksuid.KSUID) error {
	_, closer, err := a.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", id, err)
	}
	closer.Close()

	if err := a.db.Delete(id.Bytes(), a.writeOpts); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	a.log.WithField("id", id.String()).Debug("document deleted")
	return nil
}

// List returns up to limit entries in id order, which sorts by creation time
// to the second. A limit of zero or less lists everything.
func (a *Archive) List(limit int) ([]Entry, error) {
	return a.list(limit, func(Kind) bool { return true })
}

// ListKind is List restricted to documents of one kind.
func (a *Archive) ListKind(kind Kind, limit int) ([]Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	return a.list(limit, func(k Kind) bool { return k == kind })
}

func (a *Archive) list(limit int, match func(Kind) bool) ([]Entry, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(entries) >= limit {
			break
		}

		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			a.log.WithField("key", fmt.Sprintf("%x", iter.Key())).Warn("skipping foreign key")
			continue
		}
		r, err := a.codec.Decode(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		if !match(r.Kind) {
			continue
		}
		entries = append(entries, Entry{
			ID:        id,
			Kind:      r.Kind,
			Name:      string(r.Name),
			Size:      int(r.BodySize),
			CreatedAt: r.Time(),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return entries, nil
}

// Count returns the number of archived documents.
func (a *Archive) Count() (int, error) {
	entries, err := a.List(0)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
