package jobs

import (
	"context"
	"log"
	"strings"
)

// Open returns a Postgres-backed store when databaseURL is set, otherwise an
// in-memory store whose jobs are lost on restart.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		log.Printf("[jobs] no database configured, using in-memory job store")
		return NewMemoryStore(), nil
	}
	store, err := ConnectPostgres(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("[jobs] using database-backed job store")
	return store, nil
}
