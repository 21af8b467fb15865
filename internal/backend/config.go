package backend

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"taskbackend/internal/taskid"
)

// IDRange is an inclusive [Low, High] span handed to an ids.Factory.
type IDRange struct {
	Low  uint64
	High uint64
}

// Config holds the tunables a Backend is constructed with. The zero value
// is not valid; use NewConfig and then Validate, mirroring the teacher's
// Run/Checkpoint validation idiom.
type Config struct {
	// Shards is the shard count handed to internal/storage and
	// internal/fingerprint's BiMap. Both packages default to 64
	// internally; Shards exists so callers can retune it without forking
	// either package.
	Shards int

	PersistentIDs IDRange
	TransientIDs  IDRange

	// Logger receives structured Debug/Warn events for step transitions,
	// stale restarts, and panics. The zero value logs nothing.
	Logger zerolog.Logger
}

// NewConfig returns a Config with the teacher's usual production-sane
// defaults: a 64-shard fan-out, the persistent/transient ranges spec.md's
// task-id encoding calls for, and a no-op logger.
func NewConfig() Config {
	return Config{
		Shards:        64,
		PersistentIDs: IDRange{Low: 1, High: taskid.MaxPersistent},
		TransientIDs:  IDRange{Low: taskid.TransientBit, High: taskid.MaxTransient},
		Logger:        zerolog.Nop(),
	}
}

// Validate reports every structural problem with c at once, joined with
// errors.Join, the way state.Run.Validate does.
func (c Config) Validate() error {
	var errs []error
	if c.Shards <= 0 {
		errs = append(errs, fmt.Errorf("shards must be > 0, got %d", c.Shards))
	}
	if c.PersistentIDs.Low == 0 || c.PersistentIDs.High < c.PersistentIDs.Low {
		errs = append(errs, fmt.Errorf("invalid persistent id range [%d, %d]", c.PersistentIDs.Low, c.PersistentIDs.High))
	}
	if c.TransientIDs.Low == 0 || c.TransientIDs.High < c.TransientIDs.Low {
		errs = append(errs, fmt.Errorf("invalid transient id range [%d, %d]", c.TransientIDs.Low, c.TransientIDs.High))
	}
	if c.PersistentIDs.High >= c.TransientIDs.Low {
		errs = append(errs, errors.New("persistent id range must fall entirely below the transient id range"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
