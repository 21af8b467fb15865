package storage

import (
	"taskbackend/internal/event"
	"taskbackend/internal/taskid"
)

// CellId addresses an output slot produced by a task (spec.md 3).
type CellId struct {
	ValueTypeID uint32
	Ordinal     uint32
}

// CellContent is an optional opaque byte payload. Present distinguishes
// "cell explicitly holds an empty payload" from "no content at all" so a
// zero-length Payload is not mistaken for an absent item.
type CellContent struct {
	Payload []byte
	Present bool
}

// OutputKind discriminates the OutputValue variants of spec.md 3.
type OutputKind uint8

const (
	OutputCell OutputKind = iota
	OutputAlias
	OutputError
	OutputPanic
)

// OutputValue is the latest produced output of a task.
type OutputValue struct {
	Kind OutputKind

	// CellTask/Cell are set for OutputCell: the output aliases a specific
	// cell of (possibly another) task.
	CellTask taskid.TaskId
	Cell     CellId

	// AliasTask is set for OutputAlias: the output aliases another task's
	// principal output.
	AliasTask taskid.TaskId
}

// InProgressState is the payload of the InProgress item key (spec.md 3,
// 4.6). Scheduled and InProgress are modeled as one struct with a
// discriminant, since they share the done-event field and the lifecycle
// only ever holds one of them for a given task.
type InProgressState struct {
	// Scheduled is true for the Scheduled variant, false for InProgress.
	Scheduled bool

	Clean bool

	// Stale is only meaningful when Scheduled is false; it is spec.md's
	// cooperative cancellation signal (I5).
	Stale bool

	// DoneEvent is shared across a Scheduled -> InProgress -> (stale
	// restart ->) InProgress chain: spec.md 4.6 requires "the same
	// done_event is preserved so existing waiters continue to wait
	// across the restart".
	DoneEvent *event.Event

	// StartEvent fires when TryStartTaskExecution promotes Scheduled to
	// InProgress. It is only present on the Scheduled variant.
	StartEvent *event.Event
}

// ItemKind discriminates CachedDataItem categories (spec.md 3).
type ItemKind uint8

const (
	KeyInProgress ItemKind = iota
	KeyOutput
	KeyError
	KeyCellData
	KeyChild
)

// Key identifies a single CachedDataItem slot within a task's bag. It is
// a plain comparable value so it can be used directly as a map key.
// Cell/Child only participate in identity for the categories that use
// them (KeyCellData, KeyChild respectively); this is how those two
// categories support "multiple entries allowed" while the rest are
// singletons (spec.md 3's table).
type Key struct {
	Kind  ItemKind
	Cell  CellId
	Child taskid.TaskId
}

// Item is a single CachedDataItem: a Key plus its typed payload. Value's
// concrete type is determined by Key.Kind:
//
//	KeyInProgress -> *InProgressState
//	KeyOutput     -> *OutputValue
//	KeyError      -> error
//	KeyCellData   -> CellContent
//	KeyChild      -> struct{}{} (a pure edge marker)
type Item struct {
	Key   Key
	Value any
}

// InProgressItem builds the InProgress Item for state.
func InProgressItem(state *InProgressState) Item {
	return Item{Key: Key{Kind: KeyInProgress}, Value: state}
}

// OutputItem builds the Output Item for value.
func OutputItem(value *OutputValue) Item {
	return Item{Key: Key{Kind: KeyOutput}, Value: value}
}

// ErrorItem builds the Error companion Item.
func ErrorItem(err error) Item {
	return Item{Key: Key{Kind: KeyError}, Value: err}
}

// CellDataItem builds a per-cell cached value Item.
func CellDataItem(cell CellId, content CellContent) Item {
	return Item{Key: Key{Kind: KeyCellData, Cell: cell}, Value: content}
}

// ChildItem builds a Child edge Item.
func ChildItem(child taskid.TaskId) Item {
	return Item{Key: Key{Kind: KeyChild, Child: child}, Value: struct{}{}}
}
