package backend

import (
	"taskbackend/internal/storage"
	"taskbackend/internal/taskid"
)

// TaskID and CellID are local spellings of the leaf packages' identifier
// types, used throughout this package's public surface so callers never
// need to import internal/taskid or internal/storage directly just to name
// an id.
type TaskID = taskid.TaskId
type CellID = storage.CellId
