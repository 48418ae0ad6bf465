package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/store"
)

// RecordKey is the store key holding the last session record.
const RecordKey = "chat:join"

const recordTimeout = 2 * time.Second

// Record is the persisted session: the last joined room and the display name.
type Record struct {
	Room string `json:"room,omitempty"`
	Name string `json:"name,omitempty"`
}

// RecordStore reads and writes the Record in a KV store. Failures are logged, never returned.
type RecordStore struct {
	kv  store.KV
	log *zerolog.Logger
}

// NewRecordStore wraps kv. A nil kv yields a store that remembers nothing.
func NewRecordStore(kv store.KV, logger *zerolog.Logger) *RecordStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RecordStore{kv: kv, log: logger}
}

// Load returns the saved record, or the zero Record when none is stored or it cannot be parsed.
func (r *RecordStore) Load() Record {
	if r == nil || r.kv == nil {
		return Record{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	raw, ok, err := r.kv.Get(ctx, RecordKey)
	if err != nil {
		r.log.Warn().Err(err).Str("key", RecordKey).Msg("read session record")
		return Record{}
	}
	if !ok {
		return Record{}
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		r.log.Warn().Err(err).Str("key", RecordKey).Msg("ignoring unparsable session record")
		return Record{}
	}
	return rec
}

// Save overwrites the stored record.
func (r *RecordStore) Save(rec Record) {
	if r == nil || r.kv == nil {
		return
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		r.log.Error().Err(err).Msg("encode session record")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.kv.Set(ctx, RecordKey, string(raw)); err != nil {
		r.log.Warn().Err(err).Str("key", RecordKey).Msg("write session record")
	}
}
