package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"convoy-bot/config"
)

// Record is one row in the ticket audit index. The index is written on every
// lifecycle transition and is never consulted for admission decisions; the
// guild's channel list stays the source of truth.
type Record struct {
	ChannelID string    `json:"channel_id" bson:"channel_id"`
	GuildID   string    `json:"guild_id"   bson:"guild_id"`
	OwnerID   string    `json:"owner_id"   bson:"owner_id"`
	State     string    `json:"state"      bson:"state"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type TicketStore interface {
	RecordOpen(ctx context.Context, r Record) error
	RecordState(ctx context.Context, channelID, state string) error
	ListByGuild(ctx context.Context, guildID string) ([]Record, error)
	Close() error
}

func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (TicketStore, error) {
	switch cfg.Driver {
	case "sqlite":
		s, err := openSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("ticket store ready", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
		return s, nil

	case "mongodb":
		s, err := openMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		log.Info("ticket store ready", zap.String("driver", "mongodb"), zap.String("database", cfg.MongoDB))
		return s, nil

	case "none", "":
		return nopStore{}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// Nop returns a store that records nothing, for the "none" driver and tests.
func Nop() TicketStore { return nopStore{} }

type nopStore struct{}

func (nopStore) RecordOpen(context.Context, Record) error              { return nil }
func (nopStore) RecordState(context.Context, string, string) error     { return nil }
func (nopStore) ListByGuild(context.Context, string) ([]Record, error) { return nil, nil }
func (nopStore) Close() error                                          { return nil }
