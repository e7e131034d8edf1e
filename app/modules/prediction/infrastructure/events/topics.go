package predictionevents

// EvaluatedTopicV1 carries predictiondomain.EvaluatedEvent payloads after an
// evaluation run commits.
const EvaluatedTopicV1 = "prediction.event.evaluated.v1"

const (
	metadataSubject   = "subject"
	metadataEventKind = "event_kind"
)
