// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// ErrGraphNotFound indicates no snapshot exists for the project.
var ErrGraphNotFound = errors.New("graph snapshot not found")

const graphKeyPrefix = "graph:"

// GraphStore persists graph snapshots keyed by project name.
//
// Snapshots are the graph's canonical JSON form, so anything written
// here round-trips through the same serialization the export API uses.
//
// Thread Safety: Safe for concurrent use.
type GraphStore struct {
	db *DB
}

// NewGraphStore creates a store on an open database.
func NewGraphStore(db *DB) *GraphStore {
	return &GraphStore{db: db}
}

// SaveGraph writes the snapshot for a project, replacing any previous one.
func (s *GraphStore) SaveGraph(ctx context.Context, project string, g *graph.Graph) error {
	if project == "" {
		return errors.New("project name is required")
	}
	data, err := g.ToJSON()
	if err != nil {
		return err
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(graphKeyPrefix+project), data)
	})
}

// LoadGraph reads a project's snapshot.
//
// Outputs:
//
//	*graph.Graph - The restored graph with indexes rebuilt.
//	error - ErrGraphNotFound if no snapshot exists.
func (s *GraphStore) LoadGraph(ctx context.Context, project string) (*graph.Graph, error) {
	var data []byte
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(graphKeyPrefix + project))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrGraphNotFound, project)
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return graph.FromJSON(data)
}

// DeleteGraph removes a project's snapshot. Deleting a missing
// snapshot is not an error.
func (s *GraphStore) DeleteGraph(ctx context.Context, project string) error {
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(graphKeyPrefix + project))
	})
}

// ListProjects returns the names of all stored snapshots.
func (s *GraphStore) ListProjects(ctx context.Context) ([]string, error) {
	projects := []string{}
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(graphKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			projects = append(projects, strings.TrimPrefix(key, graphKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}
