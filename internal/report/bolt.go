package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/irinasmt/rcabrain/internal/models"
	bolt "go.etcd.io/bbolt"
)

const reportsBucket = "rca_reports"

// BoltStore is a bbolt-backed Store for callers that need reports to
// survive a process restart.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("report: open bbolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("report: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(ctx context.Context, report *models.RcaReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("report: marshal %s: %w", report.IncidentID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(reportsBucket)).Put([]byte(report.IncidentID), data)
	})
}

func (s *BoltStore) Get(ctx context.Context, incidentID string) (*models.RcaReport, bool, error) {
	var report models.RcaReport
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(reportsBucket)).Get([]byte(incidentID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &report)
	})
	if err != nil {
		return nil, false, fmt.Errorf("report: get %s: %w", incidentID, err)
	}
	if !found {
		return nil, false, nil
	}
	return &report, true, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
