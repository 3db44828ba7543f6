package confirmation

type Outcome int

const (
	OutcomeApproved Outcome = iota + 1
	OutcomeDeclined
	OutcomeTimedOut
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeDeclined:
		return "declined"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}
