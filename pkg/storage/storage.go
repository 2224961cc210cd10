// Package storage は生成済みアセット（動画・画像）の保存先を抽象化します。
// ローカルディスクと S3 互換オブジェクトストアを同じインターフェースで扱えます。
package storage

import (
	"context"
	"fmt"
	"io"
)

// FileStore はパス単位でファイルを読み書きするストアです。
// パスはスラッシュ区切りでストアのルートからの相対パスです。
// 実装は並行利用に対して安全である必要があります。
type FileStore interface {
	// Read はファイルを読み取り用に開きます。存在しない場合は os.ErrNotExist をラップしたエラーを返します。
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	// Write はファイルを書き込み用に開きます。呼び出し側は必ず Close してください。
	Write(ctx context.Context, path string) (io.WriteCloser, error)
	// Delete はファイルを削除します。存在しない場合も nil を返します。
	Delete(ctx context.Context, path string) error
	// Exists はファイルの有無を返します。
	Exists(ctx context.Context, path string) (bool, error)
}

// Put はデータ全体を path に書き込みます。
func Put(ctx context.Context, fs FileStore, path string, data []byte) error {
	w, err := fs.Write(ctx, path)
	if err != nil {
		return fmt.Errorf("書き込みオープン失敗 (%s): %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("書き込み失敗 (%s): %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("書き込み完了失敗 (%s): %w", path, err)
	}
	return nil
}

// Get は path の内容をすべて読み込みます。
func Get(ctx context.Context, fs FileStore, path string) ([]byte, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
