package connectors

const (
	TopicConnStatus      = "conn.status"
	TopicSignalSnapshot  = "signal.snapshot"
	TopicOperatorSighted = "operator.sighted"
	TopicOperatorLearned = "operator.learned"
	TopicRawLineIn       = "raw.line.in"
	TopicRawLineOut      = "raw.line.out"
)
