package domain

const (
	EventNameAnswerSubmitted  = "session.answer_submitted"
	EventNameSessionCompleted = "session.completed"
	EventNameRewardGranted    = "reward.granted"
)

type EventAnswerSubmitted struct {
	Session     Session
	Participant string
}

func (EventAnswerSubmitted) Name() string { return EventNameAnswerSubmitted }

// EventSessionCompleted is published exactly once per session, by whichever
// write won the completion stamp.
type EventSessionCompleted struct {
	Session Session
}

func (EventSessionCompleted) Name() string { return EventNameSessionCompleted }

type EventRewardGranted struct {
	User      string
	Amount    int64
	Reason    string
	RelatedID string
}

func (EventRewardGranted) Name() string { return EventNameRewardGranted }
