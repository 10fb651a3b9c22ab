package threadpool

import "time"

// Job is a single unit of deferred work. A submitted Job is invoked exactly
// once by exactly one worker; submitting it never runs it.
//
// Anything a Job needs must be captured by the closure. A Job has no way to
// report failure back to its submitter.
type Job func()

type messageKind int

const (
	newJob messageKind = iota
	terminate
)

func (k messageKind) String() string {
	switch k {
	case newJob:
		return "NewJob"
	case terminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

// message is what travels over the control channel: either a job or a
// terminate signal with no payload.
type message struct {
	kind     messageKind
	job      Job
	enqueued time.Time
}

func jobMessage(job Job) message {
	return message{kind: newJob, job: job, enqueued: time.Now()}
}

func terminateMessage() message {
	return message{kind: terminate}
}
