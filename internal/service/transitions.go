package service

import "github.com/Himansh-u2000/QPlan/internal/model"

const (
	actionApprove = "approve"
	actionDeny    = "deny"
)

var transitionMap = map[string]struct {
	from []model.RequestStatus
	to   model.RequestStatus
}{
	actionApprove: {from: []model.RequestStatus{model.RequestPending}, to: model.RequestApproved},
	actionDeny:    {from: []model.RequestStatus{model.RequestPending}, to: model.RequestDenied},
}

// ValidTransition reports whether action may be applied to a request in
// fromStatus.
func ValidTransition(action string, fromStatus model.RequestStatus) bool {
	t, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range t.from {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// TargetStatus is the status a request ends in after action.
func TargetStatus(action string) (model.RequestStatus, bool) {
	t, ok := transitionMap[action]
	return t.to, ok
}
