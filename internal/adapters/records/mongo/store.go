// Package mongo stores session snapshots and job records in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"goa.design/clue/health"
)

const (
	defaultSessionsCollection = "rfn_sessions"
	defaultJobsCollection     = "rfn_jobs"
	defaultOpTimeout          = 5 * time.Second
	storeName                 = "records-mongo"
)

type Options struct {
	Client             *mongodriver.Client
	Database           string
	SessionsCollection string
	JobsCollection     string
	Timeout            time.Duration
}

type Store struct {
	mongo    *mongodriver.Client
	sessions collection
	jobs     collection
	timeout  time.Duration
}

var (
	_ ports.RecordStore = (*Store)(nil)
	_ health.Pinger     = (*Store)(nil)
)

func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	sessionsCollection := opts.SessionsCollection
	if sessionsCollection == "" {
		sessionsCollection = defaultSessionsCollection
	}
	jobsCollection := opts.JobsCollection
	if jobsCollection == "" {
		jobsCollection = defaultJobsCollection
	}
	db := opts.Client.Database(opts.Database)

	return newStoreWithCollections(
		opts.Client,
		mongoCollection{coll: db.Collection(sessionsCollection)},
		mongoCollection{coll: db.Collection(jobsCollection)},
		opts.Timeout,
	), nil
}

// Connect dials uri and returns a store plus a function that disconnects
// the underlying client.
func Connect(ctx context.Context, uri, database string) (*Store, func(context.Context) error, error) {
	client, err := mongodriver.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	store, err := New(Options{Client: client, Database: database})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, err
	}
	return store, client.Disconnect, nil
}

func newStoreWithCollections(client *mongodriver.Client, sessions, jobs collection, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Store{mongo: client, sessions: sessions, jobs: jobs, timeout: timeout}
}

func (s *Store) Name() string {
	return storeName
}

func (s *Store) Ping(ctx context.Context) error {
	if s.mongo == nil {
		return errors.New("mongo client not configured")
	}
	return s.mongo.Ping(ctx, readpref.Primary())
}

// UpsertJob replaces the job document unless the stored one is terminal. The
// status filter plus upsert turns a terminal conflict into a duplicate key
// error, so the guard holds across processes.
func (s *Store) UpsertJob(ctx context.Context, record domain.JobRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"_id":    string(record.ID),
		"status": bson.M{"$nin": terminalJobStatuses()},
	}
	err := s.jobs.ReplaceOne(ctx, filter, toJobDocument(record), true)
	if mongodriver.IsDuplicateKeyError(err) {
		return fmt.Errorf("mongodb upsert job %q: %w", record.ID, domain.ErrJobTerminal)
	}
	if err != nil {
		return fmt.Errorf("mongodb upsert job %q: %w", record.ID, err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc jobDocument
	if err := s.jobs.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return domain.JobRecord{}, domain.ErrJobNotFound
		}
		return domain.JobRecord{}, fmt.Errorf("mongodb get job %q: %w", id, err)
	}
	return doc.toRecord(), nil
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.sessions.ReplaceOne(ctx, bson.M{"_id": string(session.ID)}, toSessionDocument(session), true); err != nil {
		return fmt.Errorf("mongodb save session %q: %w", session.ID, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc sessionDocument
	if err := s.sessions.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("mongodb get session %q: %w", id, err)
	}
	return doc.toSession(), nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func terminalJobStatuses() []string {
	return []string{
		string(domain.JobCompleted),
		string(domain.JobFailed),
		string(domain.JobCancelled),
		string(domain.JobTimedOut),
	}
}

type collection interface {
	FindOne(ctx context.Context, filter any) singleResult
	ReplaceOne(ctx context.Context, filter any, replacement any, upsert bool) error
}

type singleResult interface {
	Decode(val any) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any) singleResult {
	return c.coll.FindOne(ctx, filter)
}

func (c mongoCollection) ReplaceOne(ctx context.Context, filter any, replacement any, upsert bool) error {
	_, err := c.coll.ReplaceOne(ctx, filter, replacement, options.Replace().SetUpsert(upsert))
	return err
}
