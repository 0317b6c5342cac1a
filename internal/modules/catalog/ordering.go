package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
)

// orderOp is the kind of position maintenance a catalog mutation needs.
type orderOp int

const (
	orderInsert orderOp = iota
	orderMove
	orderRemove
)

// reposition keeps question positions contiguous 1..N inside a dimension.
// It is the single ordering routine behind create, move and delete:
//
//	insert: questions at position >= newPos shift +1, newPos is the slot
//	move:   intervening questions shift toward the vacated slot
//	remove: questions after oldPos shift -1
//
// A cross-dimension move is a remove in the source dimension followed by
// an insert in the target one. The returned value is the final position
// (targets past the end clamp to append). Callers must hold the
// dimension lock and run inside a transaction: the intermediate states
// here are not safe to expose.
func (u Usecases) reposition(dbc dbctx.Context, op orderOp, dimensionID uuid.UUID, oldPos, newPos int) (int, error) {
	switch op {
	case orderInsert:
		if newPos < 1 {
			return 0, apperrors.Validation("position", "must be at least 1")
		}
		max, err := u.deps.Questions.MaxPosition(dbc, dimensionID)
		if err != nil {
			return 0, fmt.Errorf("max position: %w", err)
		}
		if newPos > max+1 {
			newPos = max + 1
		}
		if err := u.deps.Questions.ShiftPositions(dbc, dimensionID, newPos, 0, +1); err != nil {
			return 0, fmt.Errorf("open slot: %w", err)
		}
		return newPos, nil

	case orderMove:
		if newPos < 1 {
			return 0, apperrors.Validation("position", "must be at least 1")
		}
		max, err := u.deps.Questions.MaxPosition(dbc, dimensionID)
		if err != nil {
			return 0, fmt.Errorf("max position: %w", err)
		}
		if newPos > max {
			newPos = max
		}
		if newPos == oldPos {
			return newPos, nil
		}
		if oldPos > newPos {
			// moving earlier: push [newPos, oldPos) down one
			if err := u.deps.Questions.ShiftPositions(dbc, dimensionID, newPos, oldPos-1, +1); err != nil {
				return 0, fmt.Errorf("shift down: %w", err)
			}
		} else {
			// moving later: pull (oldPos, newPos] up one
			if err := u.deps.Questions.ShiftPositions(dbc, dimensionID, oldPos+1, newPos, -1); err != nil {
				return 0, fmt.Errorf("shift up: %w", err)
			}
		}
		return newPos, nil

	case orderRemove:
		if err := u.deps.Questions.ShiftPositions(dbc, dimensionID, oldPos+1, 0, -1); err != nil {
			return 0, fmt.Errorf("close gap: %w", err)
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unknown order op %d", op)
}
