package ports

// ResponseCache holds fully rendered turn responses for a short TTL so a
// duplicated client retry replays the prior committed result verbatim.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, body []byte)
}
