package replay

import (
	"errors"
	"fmt"

	"github.com/okian/rally/internal/domain/model"
)

// Sentinel kinds for replay errors.
var (
	ErrReplayDone = errors.New("replay already finished")
	ErrOutOfOrder = fmt.Errorf("%w: match out of chronological order", model.ErrDataIntegrity)
)
