package indexer

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stats reports $indexStats usage for one collection.
func (m *Manager) Stats(ctx context.Context, collection string) ([]IndexStats, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{{{Key: "$indexStats", Value: bson.D{}}}}
	cursor, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrapf(err, "index stats for %s", collection)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err = cursor.All(ctx, &raw); err != nil {
		return nil, errors.Wrap(err, "decode index stats")
	}

	stats := make([]IndexStats, 0, len(raw))
	for _, r := range raw {
		stats = append(stats, parseStats(r))
	}
	return stats, nil
}

func parseStats(raw bson.M) IndexStats {
	var stat IndexStats
	stat.Name, _ = raw["name"].(string)
	stat.Host, _ = raw["host"].(string)
	stat.Building, _ = raw["building"].(bool)

	accesses, ok := raw["accesses"].(bson.M)
	if !ok {
		return stat
	}
	switch ops := accesses["ops"].(type) {
	case int64:
		stat.Accesses = ops
	case int32:
		stat.Accesses = int64(ops)
	}
	if since, ok := accesses["since"].(primitive.DateTime); ok {
		stat.Since = since.Time().UTC()
	}
	return stat
}

// StatsAll is Stats for every loaded collection.
func (m *Manager) StatsAll(ctx context.Context) (map[string][]IndexStats, error) {
	results := make(map[string][]IndexStats)
	for _, name := range m.Collections() {
		stats, err := m.Stats(ctx, name)
		if err != nil {
			if m.options.ContinueOnError {
				results[name] = []IndexStats{}
				continue
			}
			return nil, err
		}
		results[name] = stats
	}
	return results, nil
}
