// Package history はプロンプト生成結果の直近履歴を永続化します。
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound はキーが存在しない場合に KV が返すエラーです。
var ErrNotFound = errors.New("history: key not found")

// KV は履歴の保存に使う最小限のキーバリューストアです。
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// BadgerKV は BadgerDB をバックエンドにした KV です。
type BadgerKV struct {
	db *badger.DB
}

// NewBadger は BadgerKV を開きます。inMemory が true の場合 dir は無視されます。
func NewBadger(dir string, inMemory bool) (*BadgerKV, error) {
	if !inMemory && dir == "" {
		return nil, fmt.Errorf("ディスクモードでは履歴ディレクトリの指定が必要です")
	}
	opts := badger.DefaultOptions(dir).WithLogger(slogLogger{})
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(slogLogger{})
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("履歴ストアのオープン失敗: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *BadgerKV) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *BadgerKV) Close() error { return b.db.Close() }

// slogLogger は badger のログを slog に流します。Info 以下は Debug に落とします。
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...interface{})   { slog.Error(fmt.Sprintf("[badger] "+f, v...)) }
func (slogLogger) Warningf(f string, v ...interface{}) { slog.Warn(fmt.Sprintf("[badger] "+f, v...)) }
func (slogLogger) Infof(f string, v ...interface{})    { slog.Debug(fmt.Sprintf("[badger] "+f, v...)) }
func (slogLogger) Debugf(string, ...interface{})       {}

// MemoryKV はプロセス内だけで完結する KV です。主にテストと一時利用向けです。
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory は空の MemoryKV を作成します。
func NewMemory() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Close() error { return nil }

var (
	_ KV = (*BadgerKV)(nil)
	_ KV = (*MemoryKV)(nil)
)
