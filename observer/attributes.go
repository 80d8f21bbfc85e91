package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for dataflow observability spans and metrics.
var (
	AttrAgentID     = attribute.Key("agent.id")
	AttrAgentPort   = attribute.Key("agent.port")
	AttrAgentDef    = attribute.Key("agent.def_name")
	AttrAgentStatus = attribute.Key("agent.status")

	AttrBoardName = attribute.Key("board.name")
	AttrFlowName  = attribute.Key("flow.name")
)
