package storage

import "fmt"

// ClientID returns the replica's durably assigned client id, generated on
// first Open.
func (t *Tx) ClientID() (string, error) {
	if err := t.require(StoreClientState, false); err != nil {
		return "", err
	}
	raw := t.btx.Bucket(bucketClientState).Get([]byte(keyClientID))
	if raw == nil {
		return "", fmt.Errorf("storage: client_id not set; Open must assign one before any tick")
	}
	return string(raw), nil
}

// LastSeenServerVersion returns the replica's sync checkpoint.
func (t *Tx) LastSeenServerVersion() (int64, error) {
	return t.getClockLike(keyLastSeenServerVersion)
}

// SetLastSeenServerVersion advances the replica's sync checkpoint.
func (t *Tx) SetLastSeenServerVersion(v int64) error {
	return t.putClockLike(keyLastSeenServerVersion, v)
}

// LogicalClock returns the persisted value of the per-replica logical
// clock (see package clock), initially -1.
func (t *Tx) LogicalClock() (int64, error) {
	return t.getClockLike(keyLogicalClock)
}

// SetLogicalClock persists a new logical clock value.
func (t *Tx) SetLogicalClock(v int64) error {
	return t.putClockLike(keyLogicalClock, v)
}

func (t *Tx) getClockLike(key string) (int64, error) {
	if err := t.require(StoreClientState, false); err != nil {
		return 0, err
	}
	raw := t.btx.Bucket(bucketClientState).Get([]byte(key))
	if raw == nil {
		return 0, fmt.Errorf("storage: client_state[%s] not initialized", key)
	}
	v, err := decodeInt64(raw)
	if err != nil {
		return 0, err
	}
	if v < -1 {
		return 0, fmt.Errorf("%w: client_state[%s] = %d", ErrCorruptClock, key, v)
	}
	return v, nil
}

func (t *Tx) putClockLike(key string, v int64) error {
	if err := t.require(StoreClientState, true); err != nil {
		return err
	}
	if v < -1 {
		return fmt.Errorf("%w: refusing to persist client_state[%s] = %d", ErrCorruptClock, key, v)
	}
	return t.btx.Bucket(bucketClientState).Put([]byte(key), encodeInt64(v))
}
