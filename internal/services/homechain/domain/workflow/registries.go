package workflow

import (
	"fmt"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/participant"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
)

// Registries bundles the command and event registries the processor validates against.
type Registries struct {
	Commands *command.Registry
	Events   *event.Registry
}

// BuildRegistries registers every transaction and event type.
func BuildRegistries() (Registries, error) {
	commands := command.NewRegistry()
	if err := RegisterCommands(commands); err != nil {
		return Registries{}, fmt.Errorf("register commands: %w", err)
	}
	events := event.NewRegistry()
	if err := participant.RegisterEvents(events); err != nil {
		return Registries{}, fmt.Errorf("register person events: %w", err)
	}
	if err := property.RegisterEvents(events); err != nil {
		return Registries{}, fmt.Errorf("register property events: %w", err)
	}
	return Registries{Commands: commands, Events: events}, nil
}
