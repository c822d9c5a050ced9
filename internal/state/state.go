package state

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrUnnamedDataset  = errors.New("dataset has no name")
)

// Store keeps loaded datasets by name. A dataset untouched for the store's TTL
// is dropped; a zero TTL keeps datasets until they are deleted.
type Store struct {
	cache *ttlcache.Cache[string, *dataset.Dataset]
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *dataset.Dataset](ttl),
		),
	}
}

// Start runs expired-entry cleanup in the background until Stop is called.
func (s *Store) Start() {
	go s.cache.Start()
}

func (s *Store) Stop() {
	s.cache.Stop()
}

// Save stores ds under its name, replacing any dataset of the same name.
func (s *Store) Save(ds *dataset.Dataset) error {
	if ds.Name == "" {
		return ErrUnnamedDataset
	}
	s.cache.Set(ds.Name, ds, ttlcache.DefaultTTL)
	return nil
}

func (s *Store) Get(name string) (*dataset.Dataset, error) {
	item := s.cache.Get(name)
	if item == nil {
		return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, name)
	}
	return item.Value(), nil
}

func (s *Store) Delete(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	s.cache.Delete(name)
	return nil
}

// List returns the names of the live datasets, sorted.
func (s *Store) List() []string {
	names := []string{}
	for name, item := range s.cache.Items() {
		if !item.IsExpired() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
