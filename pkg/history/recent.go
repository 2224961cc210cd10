package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/cinematix-kit/pkg/domain"
)

const (
	// StorageKey は履歴リストを保存するキーです。
	StorageKey = "cinematix_prompts"
	// Limit は保持する履歴の最大件数です。
	Limit = 10
)

// Recent は新しい順に最大 Limit 件のプロンプト履歴を保持します。
// 追加のたびにリスト全体を KV に書き戻します。
type Recent struct {
	mu      sync.RWMutex
	kv      KV
	records []domain.PromptRecord
}

// Open は KV から履歴を1度だけ読み込みます。
// 保存内容が壊れている場合は警告を出して空の履歴から始めます。
func Open(ctx context.Context, kv KV) (*Recent, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv is required")
	}
	r := &Recent{kv: kv}

	data, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("履歴の読み込み失敗: %w", err)
	}

	var records []domain.PromptRecord
	if err := json.Unmarshal(data, &records); err != nil {
		slog.WarnContext(ctx, "保存済み履歴を解析できないため破棄します", "error", err)
		return r, nil
	}
	if len(records) > Limit {
		records = records[:Limit]
	}
	r.records = records
	return r, nil
}

// Add はレコードを先頭に追加し、Limit 件に切り詰めてから永続化します。
// 永続化に失敗してもメモリ上の履歴は更新済みで、エラーを返します。
func (r *Recent) Add(ctx context.Context, rec domain.PromptRecord) ([]domain.PromptRecord, error) {
	r.mu.Lock()
	next := make([]domain.PromptRecord, 0, Limit)
	next = append(next, rec)
	next = append(next, r.records...)
	if len(next) > Limit {
		next = next[:Limit]
	}
	r.records = next
	snapshot := append([]domain.PromptRecord(nil), next...)
	r.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return snapshot, fmt.Errorf("履歴のエンコード失敗: %w", err)
	}
	if err := r.kv.Set(ctx, StorageKey, data); err != nil {
		return snapshot, fmt.Errorf("履歴の保存失敗: %w", err)
	}
	return snapshot, nil
}

// List は新しい順の履歴のコピーを返します。
func (r *Recent) List() []domain.PromptRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PromptRecord(nil), r.records...)
}

// Len は現在の件数を返します。
func (r *Recent) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
