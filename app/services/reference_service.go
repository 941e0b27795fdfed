package services

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
)

// ReferenceStore serves courier reference localities. Resolution services
// depend on this interface so they can run against an in-memory store in
// tests.
type ReferenceStore interface {
	Cities(ctx context.Context, courier models.CourierID) ([]models.LocalityCandidate, error)
	Districts(ctx context.Context, courier models.CourierID, cityRef string) ([]models.LocalityCandidate, error)
	CityByName(ctx context.Context, courier models.CourierID, name string) (*models.LocalityCandidate, error)
	DistrictByName(ctx context.Context, courier models.CourierID, cityRef, name string) (*models.LocalityCandidate, error)
}

const localitiesCollection = "localities"

// ReferenceService backs ReferenceStore with mongo, keeping candidate lists
// in an LRU so resolution never queries mongo per order. Lists are small
// (tens of entries), so caching whole lists per key is cheap.
type ReferenceService struct {
	db     *mongo.Database
	cache  *lru.Cache[string, []models.LocalityCandidate]
	logger *zap.Logger
}

func NewReferenceService(db *mongo.Database, cacheSize int, logger *zap.Logger) (*ReferenceService, error) {
	cache, err := lru.New[string, []models.LocalityCandidate](cacheSize)
	if err != nil {
		return nil, err
	}
	return &ReferenceService{db: db, cache: cache, logger: logger}, nil
}

func (rs *ReferenceService) Cities(ctx context.Context, courier models.CourierID) ([]models.LocalityCandidate, error) {
	key := "cities:" + string(courier)
	if list, ok := rs.cache.Get(key); ok {
		return list, nil
	}

	list, err := rs.query(ctx, bson.M{"courier": courier, "parent_ref": bson.M{"$in": []interface{}{nil, ""}}})
	if err != nil {
		return nil, err
	}
	rs.cache.Add(key, list)
	return list, nil
}

func (rs *ReferenceService) Districts(ctx context.Context, courier models.CourierID, cityRef string) ([]models.LocalityCandidate, error) {
	key := "districts:" + string(courier) + ":" + cityRef
	if list, ok := rs.cache.Get(key); ok {
		return list, nil
	}

	list, err := rs.query(ctx, bson.M{"courier": courier, "parent_ref": cityRef})
	if err != nil {
		return nil, err
	}
	rs.cache.Add(key, list)
	return list, nil
}

// CityByName is the strict intake lookup: case-insensitive equality, no
// fuzzing. Returns nil when the city is unknown.
func (rs *ReferenceService) CityByName(ctx context.Context, courier models.CourierID, name string) (*models.LocalityCandidate, error) {
	cities, err := rs.Cities(ctx, courier)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for i := range cities {
		if strings.EqualFold(cities[i].Name, name) {
			return &cities[i], nil
		}
	}
	return nil, nil
}

func (rs *ReferenceService) DistrictByName(ctx context.Context, courier models.CourierID, cityRef, name string) (*models.LocalityCandidate, error) {
	districts, err := rs.Districts(ctx, courier, cityRef)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for i := range districts {
		if strings.EqualFold(districts[i].Name, name) {
			return &districts[i], nil
		}
	}
	return nil, nil
}

func (rs *ReferenceService) query(ctx context.Context, filter bson.M) ([]models.LocalityCandidate, error) {
	cur, err := rs.db.Collection(localitiesCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reference query: %w", err)
	}
	defer cur.Close(ctx)

	var list []models.LocalityCandidate
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("reference decode: %w", err)
	}
	return list, nil
}

// SeedLocalities replaces the whole reference set. Used by the seed command
// and the admin reseed endpoint.
func (rs *ReferenceService) SeedLocalities(ctx context.Context, candidates []models.LocalityCandidate) error {
	coll := rs.db.Collection(localitiesCollection)
	if err := coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop localities: %w", err)
	}

	docs := make([]interface{}, len(candidates))
	for i, c := range candidates {
		docs[i] = c
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert localities: %w", err)
	}

	rs.Invalidate()
	rs.logger.Info("reference localities seeded", zap.Int("count", len(candidates)))
	return nil
}

// Invalidate drops every cached list. Call after any reference data edit.
func (rs *ReferenceService) Invalidate() {
	rs.cache.Purge()
}

func (rs *ReferenceService) CachedLists() int {
	return rs.cache.Len()
}
