package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/pelagos-labs/route-engine/internal/domain"
)

const (
	PairsBucket = "pairs"
	MetaBucket  = "meta"

	savedAtKey = "pairs_saved_at"

	DefaultDBPath = "./data/route-engine.db"
)

// StoredPair is the JSON shape written to disk. Reserves are decimal
// strings; on-chain balances do not fit in a JSON number.
type StoredPair struct {
	PairID      string `json:"pairId"`
	CoinTypeA   string `json:"coinTypeA"`
	CoinTypeB   string `json:"coinTypeB"`
	ReserveA    string `json:"reserveA"`
	ReserveB    string `json:"reserveB"`
	FeeBps      uint16 `json:"feeBps"`
	LastUpdated int64  `json:"lastUpdated"`
}

// Storage is the best-effort warm cache for discovered pairs. Absence or
// corruption of any entry is a cache miss, never an error surfaced to the
// caller.
type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[pairStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePair(pair *domain.TradingPair) error {
	data, err := sonic.Marshal(pairToStored(pair))
	if err != nil {
		return fmt.Errorf("failed to marshal pair: %w", err)
	}
	return s.db.Set(PairsBucket, []byte(pair.PairID), data)
}

// SavePairBatch persists the given pairs and stamps the warm cache.
func (s *Storage) SavePairBatch(pairs []*domain.TradingPair) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pair := range pairs {
		data, err := sonic.Marshal(pairToStored(pair))
		if err != nil {
			return fmt.Errorf("failed to marshal pair %s: %w", pair.PairID, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PairsBucket),
			Key:    []byte(pair.PairID),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pair %s to batch: %w", pair.PairID, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pairs)).Msg("[pairStorage] failed to execute batch")
		return err
	}

	if err := s.touchSavedAt(); err != nil {
		log.Warn().Err(err).Msg("[pairStorage] failed to stamp warm cache")
	}

	log.Info().Int("count", len(pairs)).Msg("[pairStorage] saved pair batch")
	return nil
}

// LoadAllPairs returns every stored pair, skipping corrupt entries.
func (s *Storage) LoadAllPairs() ([]*domain.TradingPair, error) {
	data, err := s.db.List(PairsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	pairs := make([]*domain.TradingPair, 0, len(data))
	skipped := 0

	for pairID, value := range data {
		var stored StoredPair
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("pairId", pairID).Err(err).Msg("[pairStorage] failed to unmarshal pair, skipping")
			skipped++
			continue
		}

		pair, err := storedToPair(&stored)
		if err != nil {
			log.Error().Str("pairId", pairID).Err(err).Msg("[pairStorage] failed to convert stored pair, skipping")
			skipped++
			continue
		}

		pairs = append(pairs, pair)
	}

	if skipped > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(pairs)).
			Int("skipped", skipped).
			Msg("[pairStorage] pair loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(pairs)).
			Msg("[pairStorage] pair loading completed successfully")
	}

	return pairs, nil
}

// SavedAt returns when the warm cache was last stamped. A missing or
// corrupt stamp reads as the zero time, which always counts as stale.
func (s *Storage) SavedAt() time.Time {
	data, err := s.db.List(MetaBucket)
	if err != nil {
		return time.Time{}
	}
	raw, ok := data[savedAtKey]
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *Storage) touchSavedAt() error {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return s.db.Set(MetaBucket, []byte(savedAtKey), []byte(ms))
}

func (s *Storage) GetPairCount() (int, error) {
	data, err := s.db.List(PairsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func pairToStored(pair *domain.TradingPair) *StoredPair {
	reserveA := "0"
	reserveB := "0"
	if pair.ReserveA != nil {
		reserveA = pair.ReserveA.String()
	}
	if pair.ReserveB != nil {
		reserveB = pair.ReserveB.String()
	}

	return &StoredPair{
		PairID:      pair.PairID,
		CoinTypeA:   pair.CoinTypeA,
		CoinTypeB:   pair.CoinTypeB,
		ReserveA:    reserveA,
		ReserveB:    reserveB,
		FeeBps:      pair.FeeBps,
		LastUpdated: pair.LastUpdated,
	}
}

func storedToPair(stored *StoredPair) (*domain.TradingPair, error) {
	if stored.PairID == "" {
		return nil, fmt.Errorf("missing pairId")
	}
	if stored.CoinTypeA == "" || stored.CoinTypeB == "" {
		return nil, fmt.Errorf("missing coin types for pair %s", stored.PairID)
	}

	reserveA, ok := new(big.Int).SetString(stored.ReserveA, 10)
	if !ok {
		return nil, fmt.Errorf("invalid reserveA %q", stored.ReserveA)
	}
	reserveB, ok := new(big.Int).SetString(stored.ReserveB, 10)
	if !ok {
		return nil, fmt.Errorf("invalid reserveB %q", stored.ReserveB)
	}

	return &domain.TradingPair{
		PairID:      stored.PairID,
		CoinTypeA:   domain.NormalizeCoinType(stored.CoinTypeA),
		CoinTypeB:   domain.NormalizeCoinType(stored.CoinTypeB),
		ReserveA:    reserveA,
		ReserveB:    reserveB,
		FeeBps:      stored.FeeBps,
		LastUpdated: stored.LastUpdated,
	}, nil
}
