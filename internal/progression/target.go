package progression

type Kind string

const (
	KindTopic     Kind = "TOPIC"
	KindSubject   Kind = "SUBJECT"
	KindCourse    Kind = "COURSE"
	KindCompleted Kind = "COMPLETED"
	KindError     Kind = "ERROR"
)

const (
	MsgCompleted       = "Congratulations! You have completed all courses, subjects, and topics."
	MsgTopicNotFound   = "Topic not found"
	MsgSubjectNotFound = "Subject not found"
	MsgCourseNotFound  = "Course not found"
	MsgFailed          = "Failed to determine next steps."
)

// Target is where a learner goes after finishing a topic. Which fields are
// set depends on Type: topics carry SubjectID, subjects carry CourseID,
// COMPLETED and ERROR carry only Message.
type Target struct {
	Type      Kind   `json:"type"`
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	SubjectID int64  `json:"subjectId,omitempty"`
	CourseID  int64  `json:"courseId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Terminal reports whether the target has nothing to navigate to.
func (t Target) Terminal() bool {
	return t.Type == KindCompleted || t.Type == KindError
}

func completed() Target        { return Target{Type: KindCompleted, Message: MsgCompleted} }
func failed(msg string) Target { return Target{Type: KindError, Message: msg} }
