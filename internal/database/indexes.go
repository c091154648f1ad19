package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hatid/internal/kv"
)

// EnsureSessionIndexes creates the TTL index that expires stale session
// documents (abandoned carts, old notification state) after ttl of
// inactivity. Every write refreshes updatedAt, so live sessions never expire.
func EnsureSessionIndexes(db *mongo.Database, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(kv.SessionCollection).Indexes()

	ttlIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: 1}},
		Options: options.Index().
			SetName("session_ttl").
			SetExpireAfterSeconds(int32(ttl.Seconds())),
	}

	log.Println("EnsureSessionIndexes: creating session_ttl index")
	_, err := indexes.CreateOne(ctx, ttlIndex)
	if err != nil {
		log.Println("EnsureSessionIndexes: session_ttl index error:", err)
		return err
	}
	return nil
}
