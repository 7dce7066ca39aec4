package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoStore struct {
	client  *mongo.Client
	tickets *mongo.Collection
}

func openMongo(ctx context.Context, uri, dbName string) (*mongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	col := client.Database(dbName).Collection("tickets")
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "owner_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo index: %w", err)
	}

	return &mongoStore{client: client, tickets: col}, nil
}

func (m *mongoStore) RecordOpen(ctx context.Context, r Record) error {
	_, err := m.tickets.UpdateOne(ctx,
		bson.M{"channel_id": r.ChannelID},
		bson.M{"$set": r},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (m *mongoStore) RecordState(ctx context.Context, channelID, state string) error {
	_, err := m.tickets.UpdateOne(ctx,
		bson.M{"channel_id": channelID},
		bson.M{"$set": bson.M{"state": state, "updated_at": time.Now().UTC()}},
	)
	return err
}

func (m *mongoStore) ListByGuild(ctx context.Context, guildID string) ([]Record, error) {
	cur, err := m.tickets.Find(ctx, bson.M{"guild_id": guildID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
