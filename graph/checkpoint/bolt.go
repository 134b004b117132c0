package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/flowforge/agentgraph/graph"
)

// BoltCheckpointer persists ExecutionSnapshots in a single embedded bbolt
// database file instead of a directory tree, for single-binary deployments
// that want transactional checkpoint writes without a session filesystem
// layout. Each execution gets its own top-level bucket; labels are keys
// within that bucket, mirroring FSCheckpointer's <label>.json files.
type BoltCheckpointer[S graph.Stateful[S]] struct {
	db *bbolt.DB
}

const boltLatestLabel = "latest"

// NewBoltCheckpointer opens (creating if absent) the bbolt database at path.
func NewBoltCheckpointer[S graph.Stateful[S]](path string) (*BoltCheckpointer[S], error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open bolt db: %w", err)
	}
	return &BoltCheckpointer[S]{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (c *BoltCheckpointer[S]) Close() error {
	return c.db.Close()
}

// Save writes snap under label (defaulting the "latest" alias alongside any
// explicit label) inside the execution's bucket, in a single bbolt
// transaction so a crash mid-write never leaves a partial key visible.
func (c *BoltCheckpointer[S]) Save(ctx context.Context, executionID string, snap graph.ExecutionSnapshot[S], label string) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal snapshot: %w", err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(executionID))
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(boltLatestLabel), data); err != nil {
			return err
		}
		if label != "" && label != boltLatestLabel {
			if err := bucket.Put([]byte(label), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the snapshot stored under label ("latest" when label is empty).
func (c *BoltCheckpointer[S]) Load(ctx context.Context, executionID string, label string) (graph.ExecutionSnapshot[S], bool, error) {
	if label == "" {
		label = boltLatestLabel
	}

	var snap graph.ExecutionSnapshot[S]
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(executionID))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(label))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return snap, false, fmt.Errorf("checkpoint: load from bolt: %w", err)
	}
	return snap, found, nil
}

// List returns every label stored for executionID.
func (c *BoltCheckpointer[S]) List(ctx context.Context, executionID string) ([]string, error) {
	var labels []string
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(executionID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			labels = append(labels, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list bolt labels: %w", err)
	}
	return labels, nil
}

// Delete removes one label, or the execution's entire bucket when label is
// empty.
func (c *BoltCheckpointer[S]) Delete(ctx context.Context, executionID string, label string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if label == "" {
			if err := tx.DeleteBucket([]byte(executionID)); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			return nil
		}
		bucket := tx.Bucket([]byte(executionID))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(label))
	})
}
