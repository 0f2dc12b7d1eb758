package main

import (
	"fmt"
	"os"
)

// Version is set at build time via -ldflags.
var Version = "v1.3.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version":
			fmt.Printf("dtf-agent %s\n", Version)
			return
		case "run":
			if err := runRun(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "init":
			if err := runInit(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "status":
			if err := runStatus(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", os.Args[1])
	}

	fmt.Println("dtf-agent - on-device bootstrap agent")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dtf-agent run        Run the agent daemon (init cycle + services)")
	fmt.Println("  dtf-agent init       Run one initialization cycle and exit")
	fmt.Println("  dtf-agent status     Show the last initialization result")
	fmt.Println("  dtf-agent --version  Show version information")
	fmt.Println()
	fmt.Println("Signals (daemon mode):")
	fmt.Println("  SIGHUP   Re-run the initialization cycle")
	fmt.Println("  SIGUSR1  Restart the command socket service")
}
