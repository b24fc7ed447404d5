// internal/app/features/participants/assign.go
package participants

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type assignResponse struct {
	Assigned int           `json:"assigned"`
	Groups   map[int]int64 `json:"groups"`
	Message  string        `json:"message"`
}

// HandleAssign places registrants into groups. With an id form value it
// places that one registrant; otherwise every unassigned eligible one.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r, id, "assign", "Group assignment is already running.")
	if !ok {
		return
	}
	defer release()

	op := registrantstore.OpAssignAllUngrouped
	var args map[string]any
	if target := strings.TrimSpace(r.FormValue("id")); target != "" {
		op = registrantstore.OpAssignOne
		args = map[string]any{"id": target}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "group assignment")
	defer cancel()

	out, err := h.Store.Invoke(ctx, op, args)
	res, _ := out.(registrantstore.AssignResult)
	h.AuditLog.GroupsAssigned(r.Context(), r, id.UserID, op, res.Assigned, err)

	if err != nil {
		status, msg := assignFailure(err)
		if status == http.StatusInternalServerError {
			h.Log.Error("group assignment failed", zap.String("operation", op), zap.Error(err))
		}
		if wantsJSON(r) {
			writeJSON(w, status, map[string]string{"error": msg})
			return
		}
		h.flash(w, r, msg)
		http.Redirect(w, r, "/groups", http.StatusSeeOther)
		return
	}

	msg := assignMessage(res.Assigned)
	h.Log.Info("groups assigned",
		zap.String("operation", op),
		zap.Int("assigned", res.Assigned),
		zap.String("user_id", id.UserID.Hex()))

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, assignResponse{Assigned: res.Assigned, Groups: res.Groups, Message: msg})
		return
	}
	h.flash(w, r, msg)
	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}

func assignMessage(n int) string {
	switch n {
	case 0:
		return "Every eligible participant already has a group."
	case 1:
		return "Assigned 1 participant to a group."
	default:
		return fmt.Sprintf("Assigned %d participants to groups.", n)
	}
}

func assignFailure(err error) (int, string) {
	switch {
	case errors.Is(err, registrantstore.ErrNotFound):
		return http.StatusNotFound, "That participant no longer exists."
	case errors.Is(err, registrantstore.ErrNotEligible):
		return http.StatusUnprocessableEntity, "That participant is below the minimum age and cannot be grouped."
	case errors.Is(err, registrantstore.ErrBadArgument):
		return http.StatusBadRequest, "Invalid participant id."
	default:
		return http.StatusInternalServerError, "Group assignment failed. Try again."
	}
}
