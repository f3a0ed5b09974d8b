package event

// Type identifies the type of portal event
type Type string

const (
	TypeSessionStarted Type = "session.started"
	TypeSessionEnded   Type = "session.ended"
	TypeAuthRequired   Type = "auth.required"
	TypeLeaveSubmitted Type = "leave.submitted"
	TypeLeaveApproved  Type = "leave.approved"
	TypeLeaveRejected  Type = "leave.rejected"
	TypeBlogLiked      Type = "blog.liked"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSessionStarted,
		TypeSessionEnded,
		TypeAuthRequired,
		TypeLeaveSubmitted,
		TypeLeaveApproved,
		TypeLeaveRejected,
		TypeBlogLiked:
		return true
	default:
		return false
	}
}
