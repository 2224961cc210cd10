package domain

import "fmt"

// OperationStatus は長時間ジョブの状態です。
type OperationStatus int

const (
	OperationPending OperationStatus = iota
	OperationDone
	OperationFailed
)

func (s OperationStatus) String() string {
	switch s {
	case OperationPending:
		return "pending"
	case OperationDone:
		return "done"
	case OperationFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal は状態が終端（Done または Failed）かどうかを返します。
func (s OperationStatus) Terminal() bool {
	return s == OperationDone || s == OperationFailed
}

// Operation はサーバー側で追跡される非同期ジョブです。
// 状態は Pending から Done / Failed へのみ遷移し、逆行しません。
type Operation struct {
	ID     string
	Status OperationStatus
	Result *VideoAsset
	Err    error
}

// Advance は状態を遷移させます。終端状態からの遷移はエラーになります。
func (o *Operation) Advance(next OperationStatus) error {
	if o.Status == next {
		return nil
	}
	if o.Status.Terminal() || next == OperationPending {
		return fmt.Errorf("operation %s: invalid transition %s -> %s", o.ID, o.Status, next)
	}
	o.Status = next
	return nil
}
