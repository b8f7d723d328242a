package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start", Aliases: []string{"begin"}})
	reg.RegisterCommand("/cancel", Command{Handler: noop, Description: "Cancel"})
	reg.RegisterCommand("/secret", Command{Handler: noop, Description: "Admin", AdminOnly: true})
	if err := reg.RegisterCommand("noslash", Command{Handler: noop, Description: "Bad"}); err == nil {
		t.Fatal("expected error for missing slash")
	}
	if err := reg.RegisterCommand("/start", Command{Handler: noop, Description: "Duplicate"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if names := reg.CommandNames(); len(names) != 3 || names[0] != "/cancel" || names[2] != "/start" {
		t.Fatalf("CommandNames = %q", names)
	}

	list := reg.ListCommands(true)
	if len(list) != 2 || list[0].Text != "/cancel" || list[1].Text != "/start" {
		t.Fatalf("visible commands = %+v", list)
	}
	if got := reg.ListCommands(false); len(got) != 3 {
		t.Fatalf("all commands = %+v", got)
	}

	key, cmd, ok := reg.LookupCommand("begin")
	if !ok || key != "/start" || cmd.Description != "Start" {
		t.Fatalf("alias lookup = %q %+v %v", key, cmd, ok)
	}
	if _, _, ok := reg.LookupCommand("/unknown"); ok {
		t.Fatal("unexpected lookup hit")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("access", noop); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := reg.RegisterCallback("access", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, ok := reg.GetCallback("access"); !ok {
		t.Fatal("callback not found")
	}
	if keys := reg.ListCallbacks(); len(keys) != 1 || keys[0] != "access" {
		t.Fatalf("ListCallbacks = %v", keys)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
	called := false
	reg.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	_ = reg.CallbackNotFound()(nil)
	if !called {
		t.Fatal("custom not-found handler not installed")
	}
}
