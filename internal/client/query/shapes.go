// Package query builds the three live queries the chat client needs and
// decodes their raw results into typed models.
package query

import "github.com/reichert621/instachat/internal/protocol"

// ChannelsQuery selects every channel.
func ChannelsQuery() protocol.Query {
	return protocol.Query{"channels": {}}
}

// UsersQuery selects every user.
func UsersQuery() protocol.Query {
	return protocol.Query{"users": {}}
}

// ActiveChannelQuery selects the channel called name with its messages and
// each message's author, reached through the reverse users.messages link.
func ActiveChannelQuery(name string) protocol.Query {
	return protocol.Query{
		"channel": {
			Is:          "channels",
			Where:       map[string]any{"name": name},
			Cardinality: protocol.CardinalityOne,
			Children: protocol.Query{
				"messages": {
					Children: protocol.Query{
						"user": {Is: "users", Cardinality: protocol.CardinalityOne},
					},
				},
			},
		},
	}
}
