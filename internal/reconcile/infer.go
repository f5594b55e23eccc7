// Package reconcile infers candidate application statuses from classified
// signals and merges them into the persisted per-company status.
package reconcile

import "github.com/sells-group/jobtrack/internal/model"

// inference maps a classified signal type to the status it implies. Types
// absent from the table leave the stored status alone.
var inference = map[string]model.JobStatus{
	string(model.MessageRejection):           model.StatusRejected,
	string(model.MessageOffer):               model.StatusOffer,
	string(model.MessageInterviewScheduling): model.StatusInterviewing,
	string(model.MessageConfirmation):        model.StatusApplied,
	string(model.EventPhoneScreen):           model.StatusInterviewing,
	string(model.EventOnsite):                model.StatusInterviewing,
	string(model.EventTechnicalInterview):    model.StatusInterviewing,
	string(model.EventInterview):             model.StatusInterviewing,
}

// Infer returns the status implied by a classified event or message type.
func Infer(kind string) (model.JobStatus, bool) {
	s, ok := inference[kind]
	return s, ok
}

// InferEvent is Infer for calendar event types.
func InferEvent(t model.EventType) (model.JobStatus, bool) {
	return Infer(string(t))
}

// InferMessage is Infer for message types.
func InferMessage(t model.MessageType) (model.JobStatus, bool) {
	return Infer(string(t))
}
