package main

import (
	"fmt"

	"payego/internal/shell"
)

func registerSettingsCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "prefs",
		Description: "Show or change interface preferences",
		Usage:       "payego prefs [sidebar on|off|toggle]",
		Examples:    []string{"payego prefs", "payego prefs sidebar toggle"},
		Run:         runPrefs,
	})
	r.Register(&Command{
		Name:        "routes",
		Description: "List the views and who may open them",
		Usage:       "payego routes",
		Run:         runRoutes,
	})
}

func runRoutes(e *Env, _ []string) error {
	for _, route := range shell.DefaultRoutes {
		e.Printf("%s\n", shell.Describe(route))
	}
	return nil
}

func runPrefs(e *Env, args []string) error {
	switch {
	case len(args) == 0:
	case len(args) == 2 && args[0] == "sidebar":
		var err error
		switch args[1] {
		case "on":
			err = e.App.Layout.SetSidebar(true)
		case "off":
			err = e.App.Layout.SetSidebar(false)
		case "toggle":
			_, err = e.App.Layout.ToggleSidebar()
		default:
			return fmt.Errorf("sidebar must be on, off or toggle")
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("usage: payego prefs [sidebar on|off|toggle]")
	}

	state := "closed"
	if e.App.Layout.SidebarOpen() {
		state = "open"
	}
	e.Printf("sidebar: %s\n", state)
	return nil
}
