package model

type OpType string

const (
	OpCreate  OpType = "create"
	OpToggle  OpType = "toggle"
	OpEdit    OpType = "edit"
	OpDelete  OpType = "delete"
	OpReorder OpType = "reorder"
)

type OpStatus string

const (
	OpPending OpStatus = "pending"
	OpFailed  OpStatus = "failed"
)

// ReorderKey is the reserved pending-operation key for the single
// in-flight reorder; reorders are whole-list operations, not per-task.
const ReorderKey = "reorder"

// PendingOp tracks one in-flight optimistic mutation. Before holds the
// pre-mutation task snapshot for rollback and After the intended state
// for retry; BeforeList/AfterList hold whole orderings for reorder.
// Snapshots are taken at the moment the optimistic change is applied,
// never reconstructed later.
type PendingOp struct {
	Type       OpType
	Status     OpStatus
	Before     *Task
	After      *Task
	BeforeList []Task
	AfterList  []Task
	Err        error
}

func (op PendingOp) Failed() bool { return op.Status == OpFailed }
