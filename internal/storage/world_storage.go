package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/liquidsim/internal/logging"
	"github.com/annel0/liquidsim/internal/world"
)

// ErrSnapshotNotFound возвращается, если снимка с таким именем нет
var ErrSnapshotNotFound = errors.New("снимок не найден")

// ErrNotReady возвращается после Close
var ErrNotReady = errors.New("хранилище не готово")

const snapshotPrefix = "snapshot:"

// WorldStorage хранит снимки сетки в BadgerDB. Значение - JSON снимка,
// сжатый zstd.
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	enc *zstd.Encoder
	dec *zstd.Decoder
	log *logging.Logger
}

// SnapshotInfo - краткие сведения о сохранённом снимке
type SnapshotInfo struct {
	Name string
	Size int // байт после сжатия
}

// NewWorldStorage открывает хранилище в dataPath/snapshots
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "snapshots")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return open(opts, dbPath)
}

// NewMemoryWorldStorage открывает хранилище целиком в памяти
func NewMemoryWorldStorage() (*WorldStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, "")
}

func open(opts badger.Options, dbPath string) (*WorldStorage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		enc:     enc,
		dec:     dec,
		log:     logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.enc.Close()
	ws.dec.Close()
	return ws.db.Close()
}

func snapshotKey(name string) []byte {
	return []byte(snapshotPrefix + name)
}

// SaveSnapshot сохраняет снимок под его именем, перезаписывая прежний
func (ws *WorldStorage) SaveSnapshot(snap world.Snapshot) error {
	if snap.Name == "" {
		return fmt.Errorf("пустое имя снимка")
	}

	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	packed := ws.enc.EncodeAll(data, nil)

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(snap.Name), packed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	ws.log.Debug("Снимок %q сохранён: %d ячеек, %d → %d байт",
		snap.Name, len(snap.Cells), len(data), len(packed))
	return nil
}

// LoadSnapshot читает снимок по имени
func (ws *WorldStorage) LoadSnapshot(name string) (world.Snapshot, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return world.Snapshot{}, ErrNotReady
	}

	var packed []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(name))
		if err != nil {
			return err
		}
		packed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return world.Snapshot{}, fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := ws.dec.DecodeAll(packed, nil)
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("ошибка распаковки снимка %q: %w", name, err)
	}

	var snap world.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return world.Snapshot{}, fmt.Errorf("ошибка десериализации снимка %q: %w", name, err)
	}
	return snap, nil
}

// ListSnapshots возвращает сохранённые снимки, отсортированные по имени
func (ws *WorldStorage) ListSnapshots() ([]SnapshotInfo, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var infos []SnapshotInfo
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(snapshotPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			infos = append(infos, SnapshotInfo{
				Name: strings.TrimPrefix(string(item.Key()), snapshotPrefix),
				Size: int(item.ValueSize()),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeleteSnapshot удаляет снимок. Отсутствующий снимок - ErrSnapshotNotFound.
func (ws *WorldStorage) DeleteSnapshot(name string) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}

	return ws.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(snapshotKey(name)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
			}
			return err
		}
		return txn.Delete(snapshotKey(name))
	})
}
