package core

// Decision is the routing outcome for a single message: either ignore it or
// answer it by forwarding Query to the inference backend.
type Decision struct {
	Respond bool
	Query   string
}

// Ignore is the decision for messages not addressed to the bot.
var Ignore = Decision{}

// RespondWith returns a decision to answer with the given query.
func RespondWith(query string) Decision {
	return Decision{Respond: true, Query: query}
}

// RoutingPolicy decides whether a message is addressed to the bot.
type RoutingPolicy interface {
	Decide(msg InboundMessage) Decision
}
