package engine

func NewIdleSession() LiveState {
	return LiveState{
		Phase:    PhaseIdle,
		Feedback: []string{},
	}
}

func NewEmptyUpload() UploadState {
	return UploadState{Phase: PhaseEmpty}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
