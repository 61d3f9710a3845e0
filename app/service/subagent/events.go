package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsmith/app/model"
)

// eventDrivenAgent documents broker/queue topology from messaging
// signals.
type eventDrivenAgent struct {
	base
}

func (a *eventDrivenAgent) Role() model.Role {
	return model.RoleEventDriven
}

func (a *eventDrivenAgent) Run(ctx context.Context, in Input) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(a.Role())

	components := a.discoverComponents(in.Profile)

	result.Artifacts["event_flow_mermaid"] = a.flowDiagram(components)
	result.Artifacts["event_section_md"] = a.section(ctx, in,
		"event-section",
		"You are an event-driven architecture specialist. Write a detailed Markdown "+
			"section about the event architecture. Include message brokers, event "+
			"schemas, consumer groups and retry/DLQ policies.",
		components,
		func() string { return a.templateSection(components, in.Profile.RepoName) },
	)
	result.Artifacts["event_components"] = components

	result.EvidenceIDs = a.registerClaims("event_section_md", components)
	result.Metadata["component_count"] = len(components)
	result.Duration = time.Since(start)

	return result
}

func (a *eventDrivenAgent) discoverComponents(profile *model.RepoProfile) []Component {
	signals := signalSet(profile)

	var components []Component
	if signals["kafka"] {
		components = append(components, Component{Name: "Kafka Cluster", Tech: "kafka", Kind: "broker", Source: signalSource(profile, "kafka")})
	}
	if signals["sqs"] {
		components = append(components, Component{Name: "SQS Queue", Tech: "sqs", Kind: "queue", Source: signalSource(profile, "sqs")})
	}
	if signals["eventbridge"] {
		components = append(components, Component{Name: "EventBridge", Tech: "eventbridge", Kind: "bus", Source: signalSource(profile, "eventbridge")})
	}
	if signals["rabbitmq"] {
		components = append(components, Component{Name: "RabbitMQ", Tech: "rabbitmq", Kind: "broker", Source: signalSource(profile, "rabbitmq")})
	}
	if signals["nats"] {
		components = append(components, Component{Name: "NATS", Tech: "nats", Kind: "broker", Source: signalSource(profile, "nats")})
	}

	return components
}

func (a *eventDrivenAgent) flowDiagram(components []Component) string {
	lines := []string{"graph LR", `    Producer["Producer Service"]`}

	for _, comp := range components {
		safe := mermaidSafe(comp.Name)
		lines = append(lines,
			fmt.Sprintf("    %s[%q]", safe, comp.Name),
			fmt.Sprintf("    Producer --> %s", safe),
			fmt.Sprintf(`    %s --> Consumer["Consumer Service"]`, safe),
		)
	}

	return strings.Join(lines, "\n")
}

func (a *eventDrivenAgent) templateSection(components []Component, repoName string) string {
	lines := []string{
		fmt.Sprintf("## Event Architecture — %s", repoName),
		"",
		fmt.Sprintf("This repository uses **%d** messaging component(s):", len(components)),
		"",
	}

	for _, comp := range components {
		lines = append(lines, fmt.Sprintf("- **%s** (%s, %s)", comp.Name, comp.Tech, comp.Kind))
	}

	lines = append(lines, "", "### Message Flow", "",
		"Producers publish to the brokers above; consumer topology could not be derived from structure alone.")

	return strings.Join(lines, "\n")
}

// signalSource returns the file path backing a signal, when the
// detection stage recorded one.
func signalSource(profile *model.RepoProfile, signalType string) string {
	for _, s := range profile.Signals {
		if s.SignalType == signalType && s.FilePath != "" {
			return s.FilePath
		}
	}
	return ""
}
