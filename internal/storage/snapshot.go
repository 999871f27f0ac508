package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesdash/internal/upstream"
)

const snapshotRoot = "snapshots"

var snapshotName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type manifest struct {
	CapturedAt  time.Time      `json:"captured_at"`
	Collections map[string]int `json:"collections"`
}

// SnapshotStore writes each collection as snapshots/<name>/<collection>.json
// next to a manifest.json listing them.
type SnapshotStore struct {
	objects ObjectStorage
}

func NewSnapshotStore(objects ObjectStorage) *SnapshotStore {
	return &SnapshotStore{objects: objects}
}

func (s *SnapshotStore) Save(ctx context.Context, name string, snap *upstream.Snapshot) error {
	if err := validName(name); err != nil {
		return err
	}

	m := manifest{CapturedAt: snap.CapturedAt, Collections: make(map[string]int, len(snap.Collections))}
	for collection, rows := range snap.Collections {
		if rows == nil {
			rows = []json.RawMessage{}
		}
		data, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("encode %s: %w", collection, err)
		}
		if err := s.objects.UploadObject(ctx, objectKey(name, collection+".json"), data); err != nil {
			return err
		}
		m.Collections[collection] = len(rows)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := s.objects.UploadObject(ctx, objectKey(name, "manifest.json"), data); err != nil {
		return err
	}

	log.Info().Str("snapshot", name).Int("collections", len(m.Collections)).Msg("storage: snapshot saved")
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, name string) (*upstream.Snapshot, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	data, err := s.objects.ReadObject(ctx, objectKey(name, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("snapshot %s: decode manifest: %w", name, err)
	}

	snap := upstream.NewSnapshot()
	snap.CapturedAt = m.CapturedAt
	for collection := range m.Collections {
		data, err := s.objects.ReadObject(ctx, objectKey(name, collection+".json"))
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", name, err)
		}
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("snapshot %s: decode %s: %w", name, collection, err)
		}
		snap.Collections[collection] = rows
	}
	return snap, nil
}

// List returns the names of stored snapshots, sorted.
func (s *SnapshotStore) List(ctx context.Context) ([]string, error) {
	objects, err := s.objects.ListObjects(ctx, snapshotRoot+"/")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0)
	for _, o := range objects {
		dir, file := path.Split(o.Key)
		if file != "manifest.json" {
			continue
		}
		names = append(names, path.Base(path.Clean(dir)))
	}
	sort.Strings(names)
	return names, nil
}

func validName(name string) error {
	if !snapshotName.MatchString(name) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}

func objectKey(name, file string) string {
	return path.Join(snapshotRoot, name, file)
}
