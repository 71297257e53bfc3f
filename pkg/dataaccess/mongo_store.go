package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/husky/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultMongoDatabase is the database used when none is configured.
const DefaultMongoDatabase = "husky"

const (
	ticketsCollection  = "tickets"
	panelsCollection   = "panels"
	countersCollection = "counters"

	ticketCounterID = "tickets"
)

type mongoStore struct {
	// l is the logger.
	l *slog.Logger

	// client is the connection pool.
	client *mongo.Client

	// database is the database name.
	database string
}

// NewMongoStore creates a store on top of an already connected client and makes sure the indexes exist.
func NewMongoStore(ctx context.Context, l *slog.Logger, client *mongo.Client, database string) (Store, error) {
	if client == nil {
		return nil, errors.New("mongo client is nil")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	s := &mongoStore{
		l:        l.With(slog.String(logging.KeyBackend, BackendMongo)),
		client:   client,
		database: database,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *mongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection(ticketsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "channel_id", Value: 1}}},
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "closer_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("error creating ticket indexes: %w", err)
	}

	_, err = s.collection(panelsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating panel indexes: %w", err)
	}
	return nil
}

func (s *mongoStore) collection(name string) *mongo.Collection {
	return s.client.Database(s.database).Collection(name)
}

func (s *mongoStore) Backend() string {
	return BackendMongo
}

func (s *mongoStore) Ping(ctx context.Context) error {
	done := monitoring.Track(BackendMongo, "health_check", "ping")
	err := s.client.Ping(ctx, readpref.Primary())
	done(err)
	if err != nil {
		return fmt.Errorf("error pinging mongo: %w", err)
	}
	return nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting from mongo: %w", err)
	}
	return nil
}

func (s *mongoStore) NextTicketID(ctx context.Context) (id int, err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "next_ticket_id")
	defer func() { done(err) }()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int `bson:"value"`
	}
	err = s.collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": ticketCounterID},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error allocating ticket id: %w", err)
	}
	return counter.Value, nil
}

func (s *mongoStore) GetTicket(ctx context.Context, id int) (t *entities.Ticket, err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "get_ticket")
	defer func() { done(ignoreNotFound(err)) }()

	return s.findTicket(ctx, bson.M{"id": id})
}

func (s *mongoStore) GetTicketByChannel(ctx context.Context, channelID string) (t *entities.Ticket, err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "get_ticket_by_channel")
	defer func() { done(ignoreNotFound(err)) }()

	return s.findTicket(ctx, bson.M{"channel_id": channelID})
}

func (s *mongoStore) GetOpenTicketByCreator(ctx context.Context, creatorID string) (t *entities.Ticket, err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "get_open_ticket_by_creator")
	defer func() { done(ignoreNotFound(err)) }()

	return s.findTicket(ctx, bson.M{
		"creator_id": creatorID,
		"closer_id":  bson.M{"$in": bson.A{nil, ""}},
	})
}

func (s *mongoStore) findTicket(ctx context.Context, filter bson.M) (*entities.Ticket, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: 1}})

	t := new(entities.Ticket)
	err := s.collection(ticketsCollection).FindOne(ctx, filter, opts).Decode(t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	normaliseState(t)
	return t, nil
}

func (s *mongoStore) ListTickets(ctx context.Context) (list []*entities.Ticket, err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "list_tickets")
	defer func() { done(err) }()

	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cur, err := s.collection(ticketsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}

	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	for _, t := range list {
		normaliseState(t)
	}
	return list, nil
}

func (s *mongoStore) SaveTicket(ctx context.Context, ticket *entities.Ticket) (err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "save_ticket")
	defer func() { done(err) }()

	if ticket == nil {
		return errors.New("ticket is nil")
	}

	// Replace rather than $set so cleared optional fields are removed.
	opts := options.Replace().SetUpsert(true)
	_, err = s.collection(ticketsCollection).ReplaceOne(ctx, bson.M{"id": ticket.ID}, ticket, opts)
	if err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

func (s *mongoStore) DeleteTicket(ctx context.Context, id int) (err error) {
	done := monitoring.Track(BackendMongo, ticketDalName, "delete_ticket")
	defer func() { done(ignoreNotFound(err)) }()

	res, err := s.collection(ticketsCollection).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) GetPanel(ctx context.Context, guildID string) (p *entities.Panel, err error) {
	done := monitoring.Track(BackendMongo, panelDalName, "get_panel")
	defer func() { done(ignoreNotFound(err)) }()

	p = new(entities.Panel)
	err = s.collection(panelsCollection).FindOne(ctx, bson.M{"guild_id": guildID}).Decode(p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting panel: %w", err)
	}
	return p, nil
}

func (s *mongoStore) SavePanel(ctx context.Context, panel *entities.Panel) (err error) {
	done := monitoring.Track(BackendMongo, panelDalName, "save_panel")
	defer func() { done(err) }()

	if panel == nil {
		return errors.New("panel is nil")
	}

	opts := options.Replace().SetUpsert(true)
	_, err = s.collection(panelsCollection).ReplaceOne(ctx, bson.M{"guild_id": panel.GuildID}, panel, opts)
	if err != nil {
		return fmt.Errorf("error saving panel: %w", err)
	}
	return nil
}
