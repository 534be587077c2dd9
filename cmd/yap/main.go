package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yapchat/yap/internal/app"
	"github.com/yapchat/yap/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "relay websocket URL (overrides config)")
	nameFlag := flag.String("name", "", "display name prefill")
	roomFlag := flag.String("room", "", "room code prefill")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fxApp := fx.New(
		app.Module(app.Params{
			Profile:   profileName,
			ServerURL: *serverFlag,
			Name:      *nameFlag,
			Room:      *roomFlag,
		}),
		fx.NopLogger,
	)

	fxApp.Run()
}
