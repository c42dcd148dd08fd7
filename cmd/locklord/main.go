package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rmax-ai/locklord/pkg/client"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: locklord <command> [args]

Commands:
  process add <id> [priority]     register a process (priority: low|medium|high)
  resource add <id> [type]        register a resource
  request <process> <resource>    request a resource for a process
  release <process> <resource>    release a held resource
  status                          show system status
  detect                          run deadlock detection
  predict                         list risky request pairs
  recover                         terminate the victim of the current deadlock
  reset                           clear all state
  log [n]                         show the last n activity entries (default 20)

Environment:
  LOCKLORD_ENDPOINT               daemon address (default http://127.0.0.1:8090)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	api := client.NewClient(os.Getenv("LOCKLORD_ENDPOINT"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "process":
		err = cmdProcess(ctx, api, os.Args[2:])
	case "resource":
		err = cmdResource(ctx, api, os.Args[2:])
	case "request":
		err = cmdRequest(ctx, api, os.Args[2:])
	case "release":
		err = cmdRelease(ctx, api, os.Args[2:])
	case "status":
		err = cmdStatus(ctx, api)
	case "detect":
		err = cmdDetect(ctx, api)
	case "predict":
		err = cmdPredict(ctx, api)
	case "recover":
		err = cmdRecover(ctx, api)
	case "reset":
		err = api.Reset(ctx)
		if err == nil {
			fmt.Println("System reset")
		}
	case "log":
		err = cmdLog(ctx, api, os.Args[2:])
	case "version":
		fmt.Printf("locklord %s (%s, built %s)\n", Version, Commit, BuildTime)
	default:
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		if _, ok := err.(*client.APIError); !ok {
			fmt.Println("Is locklord-d running?")
		}
		os.Exit(1)
	}
}

func cmdProcess(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 2 || args[0] != "add" {
		return fmt.Errorf("usage: locklord process add <id> [priority]")
	}
	priority := ""
	if len(args) > 2 {
		priority = args[2]
	}
	if err := api.AddProcess(ctx, args[1], priority); err != nil {
		return err
	}
	fmt.Printf("Process registered: %s\n", args[1])
	return nil
}

func cmdResource(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 2 || args[0] != "add" {
		return fmt.Errorf("usage: locklord resource add <id> [type]")
	}
	rtype := ""
	if len(args) > 2 {
		rtype = args[2]
	}
	if err := api.AddResource(ctx, args[1], rtype); err != nil {
		return err
	}
	fmt.Printf("Resource registered: %s\n", args[1])
	return nil
}

func cmdRequest(ctx context.Context, api *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: locklord request <process> <resource>")
	}
	result, err := api.Request(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	switch {
	case result.Allocated:
		fmt.Printf("Allocated: %s now holds %s\n", args[0], args[1])
	case result.Waiting:
		fmt.Printf("Waiting: %s queued behind %s\n", args[0], result.Holder)
	case result.Prevented:
		fmt.Printf("DENIED: granting would deadlock (%s)\n", strings.Join(result.Cycle, " -> "))
	default:
		fmt.Println(result.Message)
	}
	return nil
}

func cmdRelease(ctx context.Context, api *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: locklord release <process> <resource>")
	}
	if err := api.Release(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Released: %s gave back %s\n", args[0], args[1])
	return nil
}

func cmdStatus(ctx context.Context, api *client.Client) error {
	status, err := api.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Status:              %s\n", status.Status)
	fmt.Printf("Active processes:    %d\n", status.ActiveProcesses)
	fmt.Printf("Total resources:     %d\n", status.TotalResources)
	fmt.Printf("Deadlocks detected:  %d\n", status.DeadlocksDetected)
	fmt.Printf("Deadlocks prevented: %d\n", status.DeadlocksPrevented)
	if len(status.Cycle) > 0 {
		fmt.Printf("Cycle:               %s\n", strings.Join(status.Cycle, " -> "))
	}
	return nil
}

func cmdDetect(ctx context.Context, api *client.Client) error {
	result, err := api.Detect(ctx)
	if err != nil {
		return err
	}
	if result.Deadlock {
		fmt.Printf("DEADLOCK: %s\n", strings.Join(result.Cycle, " -> "))
	} else {
		fmt.Println("No deadlock detected")
	}
	return nil
}

func cmdPredict(ctx context.Context, api *client.Client) error {
	result, err := api.Predict(ctx)
	if err != nil {
		return err
	}
	if len(result.Predictions) == 0 {
		fmt.Println("No risky request pairs")
		return nil
	}
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	for _, p := range result.Predictions {
		fmt.Printf("  %s requesting %s: %s risk\n", p.Process, p.Resource, p.Risk)
	}
	return nil
}

func cmdRecover(ctx context.Context, api *client.Client) error {
	result, err := api.Recover(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Recovered: terminated %s\n", result.Victim)
	if len(result.Released) > 0 {
		fmt.Printf("Released: %s\n", strings.Join(result.Released, ", "))
	}
	return nil
}

func cmdLog(ctx context.Context, api *client.Client, args []string) error {
	limit := 20
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = parsed
	}
	entries, err := api.Log(ctx, limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s [%s] %s\n", e.Time, strings.ToUpper(e.Severity), e.Message)
	}
	return nil
}
