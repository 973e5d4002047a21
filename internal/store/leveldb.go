package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key layout:
//
//	campaign/<network>           JSON ledger.State
//	events/<network>/<seq:8 BE>  JSON ledger.Event
//	clock/<network>              offset in nanoseconds, decimal
//	nonce/<network>/<addr>       next call nonce, decimal
func campaignKey(network string) []byte { return []byte("campaign/" + network) }
func clockKey(network string) []byte    { return []byte("clock/" + network) }
func eventPrefix(network string) []byte { return []byte("events/" + network + "/") }
func noncePrefix(network string) []byte { return []byte("nonce/" + network + "/") }

func nonceKey(network string, addr common.Address) []byte {
	return append(noncePrefix(network), addr.Bytes()...)
}

func eventKey(network string, seq uint64) []byte {
	k := eventPrefix(network)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

// LevelDB is a Store on a goleveldb database directory.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (s *LevelDB) LoadCampaign(network string) (*ledger.State, error) {
	data, err := s.db.Get(campaignKey(network), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoCampaign
	}
	if err != nil {
		return nil, fmt.Errorf("db get campaign: %w", err)
	}
	var st ledger.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding campaign: %w", err)
	}
	return &st, nil
}

func (s *LevelDB) SaveCampaign(network string, st ledger.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding campaign: %w", err)
	}
	if err := s.db.Put(campaignKey(network), data, nil); err != nil {
		return fmt.Errorf("db put campaign: %w", err)
	}
	return nil
}

func (s *LevelDB) DeleteCampaign(network string) error {
	batch := new(leveldb.Batch)
	batch.Delete(campaignKey(network))
	for _, prefix := range [][]byte{eventPrefix(network), noncePrefix(network)} {
		iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
		for iter.Next() {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return fmt.Errorf("db scan %s: %w", prefix, err)
		}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("db delete campaign: %w", err)
	}
	return nil
}

// Commit writes state, events and the caller nonce in one leveldb batch.
func (s *LevelDB) Commit(network string, c Commit) error {
	data, err := json.Marshal(c.State)
	if err != nil {
		return fmt.Errorf("encoding campaign: %w", err)
	}
	batch := new(leveldb.Batch)
	batch.Put(campaignKey(network), data)
	if err := putEvents(batch, network, c.Events); err != nil {
		return err
	}
	batch.Put(nonceKey(network, c.Caller), []byte(strconv.FormatUint(c.Nonce, 10)))
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("db commit: %w", err)
	}
	return nil
}

func (s *LevelDB) Nonce(network string, addr common.Address) (uint64, error) {
	data, err := s.db.Get(nonceKey(network, addr), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("db get nonce: %w", err)
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decoding nonce: %w", err)
	}
	return n, nil
}

func (s *LevelDB) AppendEvents(network string, evs []ledger.Event) error {
	if len(evs) == 0 {
		return nil
	}
	batch := new(leveldb.Batch)
	if err := putEvents(batch, network, evs); err != nil {
		return err
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("db write events: %w", err)
	}
	return nil
}

func putEvents(batch *leveldb.Batch, network string, evs []ledger.Event) error {
	for _, ev := range evs {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encoding event %d: %w", ev.Seq, err)
		}
		batch.Put(eventKey(network, ev.Seq), data)
	}
	return nil
}

func (s *LevelDB) Events(network string, from uint64) ([]ledger.Event, error) {
	rng := util.BytesPrefix(eventPrefix(network))
	rng.Start = eventKey(network, from)
	iter := s.db.NewIterator(rng, nil)
	defer iter.Release()

	var out []ledger.Event
	for iter.Next() {
		var ev ledger.Event
		if err := json.Unmarshal(iter.Value(), &ev); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		out = append(out, ev)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("db scan events: %w", err)
	}
	return out, nil
}

func (s *LevelDB) ClockOffset(network string) (time.Duration, error) {
	data, err := s.db.Get(clockKey(network), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("db get clock: %w", err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decoding clock offset: %w", err)
	}
	return time.Duration(n), nil
}

func (s *LevelDB) SetClockOffset(network string, d time.Duration) error {
	if err := s.db.Put(clockKey(network), []byte(strconv.FormatInt(int64(d), 10)), nil); err != nil {
		return fmt.Errorf("db put clock: %w", err)
	}
	return nil
}

// Close releases the database lock.
func (s *LevelDB) Close() error {
	return s.db.Close()
}
