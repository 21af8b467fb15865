package backend

import (
	"taskbackend/internal/changelog"
	"taskbackend/internal/fingerprint"
	"taskbackend/internal/storage"
	"taskbackend/internal/taskid"
)

// CacheInsertion is one record of the fingerprint-map insertions stream
// (spec.md 6: "Cache insertions: (fingerprint, task-id)").
type CacheInsertion struct {
	Fingerprint *fingerprint.Fingerprint
	TaskID      taskid.TaskId
}

// UpdateKind discriminates the storage-update stream's add/remove tag.
type UpdateKind uint8

const (
	UpdateAdd UpdateKind = iota
	UpdateRemove
)

// StorageUpdate is one record of the storage-updates stream (spec.md 6:
// "(task-id, item-category, add|remove, payload-or-key)").
type StorageUpdate struct {
	TaskID taskid.TaskId
	Key    storage.Key
	Kind   UpdateKind
	// Payload is the item's value for UpdateAdd; nil for UpdateRemove,
	// where Key alone identifies what was removed.
	Payload any
}

// cacheInsertionLog and storageUpdateLog name the two changelog.Log
// instantiations spec.md 4.4 calls for: "one for fingerprint-map insertions
// and one for storage updates". Transient tasks never produce records in
// either (spec.md 4.4); callers are responsible for only logging persistent
// task activity.
type cacheInsertionLog = changelog.Log[CacheInsertion]
type storageUpdateLog = changelog.Log[StorageUpdate]

// CacheInsertionBatch and StorageUpdateBatch are the drained-batch types
// RequestSnapshot hands to the persistence collaborator (spec.md 4.4, 6).
type CacheInsertionBatch = changelog.Batch[CacheInsertion]
type StorageUpdateBatch = changelog.Batch[StorageUpdate]
