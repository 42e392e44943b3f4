package lifecycle

import "github.com/prot-alx/megaportal-backend-api-sub000/internal/models"

// transitionMap lists the statuses each status may move to. closed and
// cancelled have no entries: they are terminal.
var transitionMap = map[string][]string{
	models.StatusNew:        {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusSuccess, models.StatusMonitoring, models.StatusPostponed, models.StatusClosed, models.StatusCancelled},
	models.StatusSuccess:    {models.StatusClosed, models.StatusCancelled},
	models.StatusMonitoring: {models.StatusInProgress, models.StatusClosed, models.StatusCancelled},
	models.StatusPostponed:  {models.StatusInProgress, models.StatusClosed, models.StatusCancelled},
}

func ValidTransition(fromStatus, toStatus string) bool {
	allowed, ok := transitionMap[fromStatus]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == toStatus {
			return true
		}
	}
	return false
}

func IsTerminal(status string) bool {
	return status == models.StatusClosed || status == models.StatusCancelled
}
