package kafka

// Config holds Kafka connection parameters shared by producers and consumers.
type Config struct {
	Brokers       []string
	ConsumerGroup string

	// TLS enables TLS on the broker connection.
	TLS bool

	// SASL authentication. Mechanism is one of "PLAIN", "SCRAM-SHA-256",
	// "SCRAM-SHA-512". Empty defaults to PLAIN when SASLEnabled is set.
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}
