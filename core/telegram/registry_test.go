package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/nstonic/Fish-bot/core/telegram/commands"
)

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	noop := func(tele.Context) error { return nil }

	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Открыть магазин"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})
	reg.RegisterCommand("cart", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "hidden", Hidden: true})
	reg.RegisterCommand("/empty", commands.Command{Handler: noop})

	all := reg.Commands()
	require.Len(t, all, 2)
	assert.Equal(t, "Открыть магазин", all["/start"].Description)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)
	assert.Len(t, reg.ListCommands(false), 2)
}

func TestRegistryRoutes(t *testing.T) {
	reg := NewRegistry()
	reg.AddRoutes(Route{Endpoint: tele.OnText}, Route{Endpoint: tele.OnCallback})
	routes := reg.Routes()
	require.Len(t, routes, 2)

	routes[0].Endpoint = "mutated"
	assert.Equal(t, tele.OnText, reg.Routes()[0].Endpoint)
}
