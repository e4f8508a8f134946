package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/electr1fy0/bluenote/crypto"
)

const (
	recordVersion = 1
	filePerms     = 0o600
	dirPerms      = 0o700
)

var (
	ErrLocked  = errors.New("record is encrypted but no passphrase is configured")
	ErrCorrupt = errors.New("record is corrupted")
)

// record is the on-disk envelope of one namespace key. Exactly one of Data
// and Sealed is set.
type record struct {
	Version int                   `json:"version"`
	Key     string                `json:"key"`
	Data    json.RawMessage       `json:"data,omitempty"`
	Sealed  *crypto.EncryptedData `json:"sealed,omitempty"`
}

func recordPath(dir, key string) string {
	return filepath.Join(dir, key+".json")
}

func writeRecord(dir, key string, payload []byte, sealer *crypto.Sealer) error {
	rec := record{Version: recordVersion, Key: key}
	if sealer != nil {
		sealed, err := sealer.Seal(payload, []byte(key))
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
		rec.Sealed = sealed
	} else {
		rec.Data = payload
	}

	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	path := recordPath(dir, key)
	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// atomic.WriteFile does not set permissions on new files
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// readRecord returns the decoded payload of key, or ok=false when no record exists.
func readRecord(dir, key string, sealer *crypto.Sealer) (payload []byte, ok bool, err error) {
	path := recordPath(dir, key)
	raw, err := os.ReadFile(path) //nolint:gosec // path is built from the data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	if rec.Key != key {
		return nil, false, fmt.Errorf("%w: %s holds key %q", ErrCorrupt, path, rec.Key)
	}

	switch {
	case rec.Sealed != nil:
		if sealer == nil {
			return nil, false, fmt.Errorf("%s: %w", path, ErrLocked)
		}
		payload, err = sealer.Open(*rec.Sealed, []byte(key))
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", path, err)
		}
	case len(rec.Data) > 0:
		payload = rec.Data
	default:
		return nil, false, fmt.Errorf("%w: %s has no payload", ErrCorrupt, path)
	}

	return payload, true, nil
}
